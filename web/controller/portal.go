package controller

import (
	"errors"
	"net/http"

	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/web/service"
	"github.com/greenpoints/gp-ui/web/session"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// NameForm represents the display-name update request.
type NameForm struct {
	Name string `json:"name" form:"name"`
}

// PortalController serves the member portal API: own profile, deposits,
// display-name updates, impact figures and the identity QR code.
type PortalController struct {
	BaseController

	profileService *service.ProfileService
	rankingService service.RankingService
}

func NewPortalController(g *gin.RouterGroup, profileService *service.ProfileService) *PortalController {
	a := &PortalController{profileService: profileService}
	a.initRouter(g)
	return a
}

func (a *PortalController) initRouter(g *gin.RouterGroup) {
	g = g.Group("portal")
	g.Use(a.checkLogin)

	api := g.Group("api")
	api.GET("/profile", a.profile)
	api.GET("/impact", a.impact)
	api.GET("/qrcode", a.qrcode)
	api.POST("/deposit", a.deposit)
	api.POST("/name", a.rename)
}

// currentProfile returns the store's copy of the session profile when it
// exists, else the session copy itself. The session may outlive its store
// record (soft reference), so the fallback is deliberate.
func (a *PortalController) currentProfile(c *gin.Context) *model.UserProfile {
	user := session.GetLoginUser(c)
	stored, err := a.profileService.Get(user.Role, user.Id)
	if err != nil {
		return user
	}
	return stored
}

func (a *PortalController) profile(c *gin.Context) {
	jsonObj(c, a.currentProfile(c), nil)
}

func (a *PortalController) impact(c *gin.Context) {
	jsonObj(c, a.rankingService.DeriveImpact(*a.currentProfile(c)), nil)
}

// qrcode renders the member's id as a PNG for collection-point scanners.
func (a *PortalController) qrcode(c *gin.Context) {
	user := session.GetLoginUser(c)
	png, err := qrcode.Encode(user.Id, qrcode.Medium, 256)
	if err != nil {
		jsonMsg(c, "generate qr code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// deposit registers one collected item for the logged-in member and
// refreshes the session profile.
func (a *PortalController) deposit(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user.Role != model.RoleUser {
		pureJsonMsg(c, http.StatusOK, false, "deposits are for member profiles only")
		return
	}

	updated, receipt, err := a.profileService.Deposit(user.Id)
	if errors.Is(err, service.ErrNotFound) {
		pureJsonMsg(c, http.StatusOK, false, "profile record missing from store")
		return
	} else if err != nil {
		jsonMsg(c, "deposit", err)
		return
	}

	if err := session.SetLoginUser(c, updated); err != nil {
		jsonMsg(c, "refresh session", err)
		return
	}
	jsonObj(c, gin.H{"profile": updated, "receipt": receipt}, nil)
}

// rename updates the display name in the store and the session.
func (a *PortalController) rename(c *gin.Context) {
	var form NameForm
	if err := c.ShouldBind(&form); err != nil || form.Name == "" {
		pureJsonMsg(c, http.StatusOK, false, "name can not be empty")
		return
	}

	user := session.GetLoginUser(c)
	updated, err := a.profileService.Update(user.Role, user.Id, func(p *model.UserProfile) {
		p.Name = form.Name
	})
	if err != nil {
		jsonMsg(c, "update name", err)
		return
	}

	if err := session.SetLoginUser(c, updated); err != nil {
		jsonMsg(c, "refresh session", err)
		return
	}
	jsonObj(c, updated, nil)
}
