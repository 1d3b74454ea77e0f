package controller

import (
	"strconv"

	"github.com/greenpoints/gp-ui/database/model"
	"github.com/greenpoints/gp-ui/logger"
	"github.com/greenpoints/gp-ui/web/middleware"
	"github.com/greenpoints/gp-ui/web/service"

	"github.com/gin-gonic/gin"
)

// PanelController serves the admin dashboard API: member management,
// leaderboard, system status, logs and the insights panel.
type PanelController struct {
	BaseController

	profileService  *service.ProfileService
	rankingService  service.RankingService
	serverService   *service.ServerService
	insightsService *service.InsightsService
	settingService  service.SettingService
}

func NewPanelController(g *gin.RouterGroup, profileService *service.ProfileService, insightsService *service.InsightsService) *PanelController {
	a := &PanelController{
		profileService:  profileService,
		serverService:   service.NewServerService(profileService),
		insightsService: insightsService,
	}
	a.initRouter(g)
	return a
}

func (a *PanelController) initRouter(g *gin.RouterGroup) {
	g = g.Group("panel")
	g.Use(a.checkLogin)
	g.Use(middleware.RoleRequired(model.RoleAdmin))

	api := g.Group("api")
	api.GET("/users", a.users)
	api.GET("/leaderboard", a.leaderboard)
	api.GET("/status", a.status)
	api.GET("/logs", a.logs)
	api.GET("/insights", a.insights)
}

// users lists all USER profiles in registration order.
func (a *PanelController) users(c *gin.Context) {
	jsonObj(c, a.profileService.AllOfRole(model.RoleUser), nil)
}

// leaderboard returns USER profiles ranked by points.
func (a *PanelController) leaderboard(c *gin.Context) {
	profiles := a.profileService.AllOfRole(model.RoleUser)
	jsonObj(c, a.rankingService.Rank(profiles), nil)
}

func (a *PanelController) status(c *gin.Context) {
	jsonObj(c, a.serverService.GetStatus(), nil)
}

// logs serves recent entries from the in-memory log buffer.
func (a *PanelController) logs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "50"))
	if err != nil || count < 1 {
		if pageSize, err := a.settingService.GetPageSize(); err == nil {
			count = pageSize
		} else {
			count = 50
		}
	}
	level := c.DefaultQuery("level", "INFO")
	jsonObj(c, logger.GetLogs(count, level), nil)
}

// insights returns generated sustainability commentary for the community's
// aggregate bottle count. Generation failures degrade to canned text, never
// to an error response.
func (a *PanelController) insights(c *gin.Context) {
	profiles := a.profileService.AllOfRole(model.RoleUser)
	bottles := a.rankingService.AggregateBottles(profiles)
	text := a.insightsService.Summarize(c.Request.Context(), bottles)
	jsonObj(c, gin.H{"bottles": bottles, "insight": text}, nil)
}
