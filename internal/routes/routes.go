package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eb5tracker/internal/handlers"
	"eb5tracker/internal/middleware"
	"eb5tracker/internal/models"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Investors *handlers.InvestorHandler
	Templates *handlers.TemplateHandler
	Users     *handlers.UserHandler
	Reports   *handlers.ReportHandler
}

func SetupRoutes(r *gin.Engine, sessions middleware.SessionResolver, h Handlers) *gin.Engine {
	requireAuth := middleware.RequireAuth(sessions)
	optionalAuth := middleware.OptionalAuth(sessions)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/signup", h.Auth.Signup)
	r.POST("/login", h.Auth.Login)

	// ---- session
	r.POST("/logout", requireAuth, h.Auth.Logout)
	r.GET("/session", requireAuth, h.Auth.Session)

	// INVESTORS (no token = local demo store)
	inv := r.Group("/investors", optionalAuth)
	{
		inv.GET("", h.Investors.List)
		inv.POST("", h.Investors.Create)
		inv.GET("/:id", h.Investors.GetByID)
		inv.PUT("/:id", h.Investors.Update)
		inv.DELETE("/:id", h.Investors.Delete)
		inv.POST("/:id/stages/:stageId/toggle", h.Investors.ToggleStage)
		inv.PUT("/:id/stages/:stageId/status", h.Investors.SetStageStatus)
		inv.PUT("/:id/notes", h.Investors.SaveNotes)
	}

	// REPORTS
	r.GET("/timeline", optionalAuth, h.Reports.Timeline)
	r.GET("/timeline.pdf", optionalAuth, h.Reports.TimelinePDF)

	// TEMPLATE (read public, edit admin)
	r.GET("/template", h.Templates.List)
	tpl := r.Group("/template", requireAuth, adminOnly)
	{
		tpl.PUT("", h.Templates.Replace)
		tpl.POST("/stages", h.Templates.Add)
		tpl.PUT("/stages/:index", h.Templates.Edit)
		tpl.DELETE("/stages/:index", h.Templates.Remove)
		tpl.POST("/move", h.Templates.Move)
	}

	// USERS (Admin)
	users := r.Group("/users", requireAuth, adminOnly)
	{
		users.GET("", h.Users.ListUsers)
		users.PUT("/:id/role", h.Users.UpdateRole)
	}

	return r
}
