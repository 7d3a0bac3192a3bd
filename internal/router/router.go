package router

import (
	"net/http"

	"github.com/chxdon9587/NextForD/internal/auth"
	"github.com/chxdon9587/NextForD/internal/cache"
	"github.com/chxdon9587/NextForD/internal/handler"
	"github.com/chxdon9587/NextForD/internal/logic"
	"github.com/chxdon9587/NextForD/internal/metrics"
	"github.com/chxdon9587/NextForD/internal/payment"
	"github.com/chxdon9587/NextForD/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB          *gorm.DB
	Cache       cache.ProjectCache
	Store       storage.ObjectStore
	UploadDir   string // 非空时以 /uploads 提供本地文件
	Payment     payment.Gateway
	Tokens      *auth.TokenIssuer
	OTP         *auth.OTPService
	MaxUploadMB int64
}

func Setup(deps Deps) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(metrics.Middleware())
	r.Use(auth.Middleware(deps.Tokens))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "crowdfunding-service",
		})
	})
	r.GET("/metrics", metrics.Handler())
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	db := deps.DB
	milestoneLogic := logic.NewMilestoneLogic(db, deps.Cache)
	userLogic := logic.NewUserLogic(db)

	authHandler := handler.NewAuthHandler(deps.OTP, deps.Tokens, userLogic)
	projectHandler := handler.NewProjectHandler(logic.NewProjectLogic(db, deps.Cache, deps.Store), deps.MaxUploadMB)
	milestoneHandler := handler.NewMilestoneHandler(milestoneLogic)
	backingHandler := handler.NewBackingHandler(logic.NewBackingLogic(db, deps.Payment, deps.Cache))
	socialHandler := handler.NewSocialHandler(logic.NewSocialLogic(db, deps.Cache))
	commentHandler := handler.NewCommentHandler(logic.NewCommentLogic(db))
	updateHandler := handler.NewUpdateHandler(logic.NewUpdateLogic(db))
	userHandler := handler.NewUserHandler(userLogic, logic.NewRoleLogic(db))
	dashboardHandler := handler.NewDashboardHandler(logic.NewDashboardLogic(db))

	requireUser := auth.RequireUser()

	// API版本组
	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/code", authHandler.RequestCode)
			authGroup.POST("/verify", authHandler.VerifyCode)
		}

		v1.GET("/pages/:slug", projectHandler.GetProject)
		v1.POST("/uploads/project-images", requireUser, projectHandler.UploadImage)

		// 项目相关路由
		projects := v1.Group("/projects")
		{
			projects.GET("", projectHandler.GetProjects)
			projects.POST("", requireUser, projectHandler.CreateProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
			projects.POST("/:id/submit", requireUser, projectHandler.SubmitProject)
			projects.POST("/:id/review", requireUser, projectHandler.ReviewProject)
			projects.POST("/:id/launch", requireUser, projectHandler.LaunchProject)
			projects.POST("/:id/cancel", requireUser, projectHandler.CancelProject)

			projects.GET("/:id/milestones", milestoneHandler.GetProjectMilestones)
			projects.GET("/:id/escrow", milestoneHandler.GetEscrowFunds)
			projects.GET("/:id/escrow/summary", milestoneHandler.GetEscrowSummary)

			projects.POST("/:id/backings", requireUser, backingHandler.CreateBacking)
			projects.GET("/:id/backers", requireUser, backingHandler.GetProjectBackers)

			projects.GET("/:id/likes", socialHandler.GetLikes)
			projects.POST("/:id/like", requireUser, socialHandler.ToggleLike)

			projects.GET("/:id/comments", commentHandler.GetComments)
			projects.GET("/:id/comments/count", commentHandler.GetCommentCount)
			projects.POST("/:id/comments", requireUser, commentHandler.CreateComment)

			projects.GET("/:id/updates", updateHandler.GetUpdates)
			projects.POST("/:id/updates", requireUser, updateHandler.CreateUpdate)
		}

		milestones := v1.Group("/milestones", requireUser)
		{
			milestones.POST("/:id/start", milestoneHandler.StartMilestone)
			milestones.POST("/:id/complete", milestoneHandler.MarkCompleted)
			milestones.POST("/:id/verification", milestoneHandler.RequestVerification)
			milestones.POST("/:id/release", milestoneHandler.ReleaseFunds)
		}

		comments := v1.Group("/comments", requireUser)
		{
			comments.PUT("/:id", commentHandler.UpdateComment)
			comments.DELETE("/:id", commentHandler.DeleteComment)
		}

		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/roles", userHandler.GetRoles)
			users.POST("/:id/roles", requireUser, userHandler.AssignRole)
			users.DELETE("/:id/roles/:role", requireUser, userHandler.RemoveRole)
			users.GET("/:id/follow", socialHandler.GetFollowStats)
			users.POST("/:id/follow", requireUser, socialHandler.ToggleFollow)
		}

		me := v1.Group("/me", requireUser)
		{
			me.GET("", userHandler.GetMe)
			me.PUT("", userHandler.UpdateProfile)
			me.GET("/backings", backingHandler.GetMyBackings)
			me.GET("/dashboard", dashboardHandler.CreatorAnalytics)
			me.GET("/activity", dashboardHandler.BackerActivity)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
