package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/approval"
	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/config"
	"github.com/AIWebFAZ/frdfund/internal/handlers"
	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
	"github.com/AIWebFAZ/frdfund/internal/project"
)

// NewRouter wires every component. The store handle and the logger are the
// only shared dependencies; everything else is constructed here.
func NewRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*gin.Engine, *audit.Recorder) {
	recorder := audit.NewRecorder(db, log.Named("audit"))
	projectSvc := project.NewService(db, recorder, log.Named("project"))
	queue := approval.NewQueue(db)

	authH := handlers.NewAuthHandler(db, recorder, cfg.JWTSecret, cfg.JWTExpireHours)
	projectH := handlers.NewProjectHandler(projectSvc)
	approvalH := handlers.NewApprovalHandler(projectSvc, queue)
	auditH := handlers.NewAuditHandler(recorder)
	userH := handlers.NewUserHandler(db, recorder)
	groupH := handlers.NewGroupHandler(db)
	documentH := handlers.NewDocumentHandler(db, recorder, cfg.UploadDir)
	dashboardH := handlers.NewDashboardHandler(db)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "FRD Fund API is running"})
	})

	api := r.Group("/api")

	api.POST("/auth/login", authH.Login)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth(cfg.JWTSecret))

	auth.POST("/auth/logout", authH.Logout)
	auth.POST("/auth/change-password", authH.ChangePassword)

	auth.GET("/projects", projectH.List)
	auth.GET("/projects/:id", projectH.Get)
	auth.POST("/projects", projectH.Create)
	auth.PUT("/projects/:id", projectH.Update)
	auth.POST("/projects/:id/submit", projectH.Submit)
	auth.DELETE("/projects/:id",
		middleware.RequireRole(models.RoleAdmin),
		projectH.Delete,
	)

	auth.GET("/approvals/pending", approvalH.Pending)
	auth.POST("/approvals/:id", approvalH.Decide)
	auth.GET("/approvals/history/:id", approvalH.History)

	auth.GET("/audit-logs",
		middleware.RequireRole(models.RoleAdmin),
		auditH.List,
	)
	auth.GET("/audit-logs/record/:table/:id", auditH.RecordHistory)
	auth.GET("/audit-logs/user/:userId/summary",
		middleware.RequireRole(models.RoleAdmin),
		auditH.ActorSummary,
	)

	auth.GET("/users", middleware.RequireRole(models.RoleAdmin), userH.List)
	auth.POST("/users", middleware.RequireRole(models.RoleAdmin), userH.Create)
	auth.POST("/users/:id/deactivate", middleware.RequireRole(models.RoleAdmin), userH.Deactivate)
	auth.GET("/user-roles/:userId/roles", middleware.RequireRole(models.RoleAdmin), userH.Roles)
	auth.POST("/user-roles/:userId/roles", middleware.RequireRole(models.RoleAdmin), userH.AddRole)
	auth.DELETE("/user-roles/roles/:roleId", middleware.RequireRole(models.RoleAdmin), userH.RemoveRole)

	auth.GET("/groups", groupH.List)
	auth.GET("/groups/:id", groupH.Get)
	auth.GET("/groups/:id/members", groupH.Members)

	auth.POST("/projects/:id/documents", documentH.Upload)
	auth.GET("/projects/:id/documents", documentH.List)
	auth.DELETE("/documents/:id", documentH.Delete)

	auth.GET("/dashboard/stats", dashboardH.Stats)
	auth.GET("/dashboard/recent-projects", dashboardH.RecentProjects)

	return r, recorder
}
