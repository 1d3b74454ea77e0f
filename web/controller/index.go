package controller

import (
	"errors"
	"net/http"

	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/logger"
	"github.com/greenpoints/gp-ui/web/service"
	"github.com/greenpoints/gp-ui/web/session"

	"github.com/gin-gonic/gin"
)

// LoginForm represents the login request structure.
type LoginForm struct {
	Role     string `json:"role" form:"role"`
	Id       string `json:"id" form:"id"`
	Password string `json:"password" form:"password"`
}

// SignupForm represents the signup request structure.
type SignupForm struct {
	Role     string `json:"role" form:"role"`
	Id       string `json:"id" form:"id"`
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// IndexController handles login, signup and logout.
type IndexController struct {
	BaseController

	settingService service.SettingService
	profileService *service.ProfileService
}

func NewIndexController(g *gin.RouterGroup, profileService *service.ProfileService) *IndexController {
	a := &IndexController{profileService: profileService}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/logout", a.logout)

	g.POST("/login", a.login)
	g.POST("/signup", a.signup)
}

// redirectFor maps a role to its default view. ADMIN lands on the dashboard,
// USER on the personal portal. Callers rely on this dispatch rule.
func redirectFor(c *gin.Context, role model.Role) string {
	basePath := c.GetString("base_path")
	if role == model.RoleAdmin {
		return basePath + "panel/"
	}
	return basePath + "portal/"
}

// login authenticates a profile and opens the session.
func (a *IndexController) login(c *gin.Context) {
	var form LoginForm

	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Id == "" {
		pureJsonMsg(c, http.StatusOK, false, "id can not be empty")
		return
	}
	if form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "password can not be empty")
		return
	}
	role := model.Role(form.Role)
	if !role.Valid() {
		pureJsonMsg(c, http.StatusOK, false, "unknown role")
		return
	}

	user, err := a.profileService.Authenticate(role, form.Id, form.Password)
	if err != nil {
		logger.Warningf("wrong credentials for %s/%s, IP: %s", form.Role, form.Id, getRemoteIp(c))
		pureJsonMsg(c, http.StatusOK, false, "invalid id or password")
		return
	}

	a.openSession(c, user)
	logger.Infof("%s/%s logged in, IP: %s", user.Role, user.Id, getRemoteIp(c))
	jsonObj(c, gin.H{"profile": user, "redirect": redirectFor(c, user.Role)}, nil)
}

// signup registers a new profile and logs it in immediately.
func (a *IndexController) signup(c *gin.Context) {
	var form SignupForm

	if err := c.ShouldBind(&form); err != nil {
		pureJsonMsg(c, http.StatusOK, false, "invalid form data")
		return
	}
	if form.Id == "" || form.Name == "" || form.Password == "" {
		pureJsonMsg(c, http.StatusOK, false, "id, name and password can not be empty")
		return
	}
	role := model.Role(form.Role)
	if !role.Valid() {
		pureJsonMsg(c, http.StatusOK, false, "unknown role")
		return
	}

	user, err := a.profileService.Create(role, form.Id, form.Name, form.Password)
	if errors.Is(err, service.ErrConflict) {
		pureJsonMsg(c, http.StatusOK, false, "identity "+form.Id+" is already registered")
		return
	} else if err != nil {
		jsonMsg(c, "signup", err)
		return
	}

	a.openSession(c, user)
	jsonObj(c, gin.H{"profile": user, "redirect": redirectFor(c, user.Role)}, nil)
}

func (a *IndexController) openSession(c *gin.Context, user *model.UserProfile) {
	sessionMaxAge, err := a.settingService.GetSessionMaxAge()
	if err != nil {
		logger.Warning("unable to get session max age:", err)
	}
	if sessionMaxAge > 0 {
		if err := session.SetMaxAge(c, sessionMaxAge*60); err != nil {
			logger.Warning("unable to set session max age:", err)
		}
	}
	if err := session.SetLoginUser(c, user); err != nil {
		logger.Warning("unable to save session:", err)
	}
}

// logout clears the session and redirects to the login page.
func (a *IndexController) logout(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user != nil {
		logger.Infof("%s/%s logged out", user.Role, user.Id)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("unable to clear session:", err)
	}
	c.Redirect(http.StatusTemporaryRedirect, c.GetString("base_path"))
}
