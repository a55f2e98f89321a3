package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/globlecampus/campus-api/internal/middleware"
	"github.com/globlecampus/campus-api/internal/service"
)

// Handlers groups every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Ledger      *LedgerHandler
	Material    *MaterialHandler
	Blog        *BlogHandler
	Video       *VideoHandler
	Marketplace *MarketplaceHandler
	Moderation  *ModerationHandler
	Dashboard   *DashboardHandler
	Report      *ReportHandler
	Support     *SupportHandler
	Chat        *ChatHandler
	Files       *FileHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API under the configured prefix. The metrics
// scrape endpoint lives at the engine root so Prometheus does not need to
// know the API prefix.
func RegisterRoutes(r *gin.Engine, prefix string, authService *service.AuthService, h Handlers) {
	r.GET("/metrics", h.Metrics.Scrape)

	api := r.Group(prefix)

	// Public surface: browsing approved content requires no session.
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/forgot-password", h.Auth.ForgotPassword)

	api.GET("/materials", h.Material.List)
	api.GET("/materials/:id", h.Material.Get)
	api.GET("/blogs", h.Blog.List)
	api.GET("/blogs/:id", h.Blog.Get)
	api.GET("/videos", h.Video.List)
	api.GET("/videos/:id", h.Video.Get)
	api.GET("/marketplace", h.Marketplace.List)
	api.GET("/marketplace/:id", h.Marketplace.Get)
	api.GET("/leaderboard", h.Profile.Leaderboard)
	api.POST("/contact", h.Support.CreateContact)
	api.GET("/files/:token", h.Files.Serve)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.POST("/auth/change-password", h.Auth.ChangePassword)
		authed.GET("/auth/me", h.Auth.Me)

		authed.GET("/profile", h.Profile.Get)
		authed.PUT("/profile", h.Profile.Update)
		authed.GET("/dashboard", h.Dashboard.Student)

		authed.GET("/tokens/balance", h.Ledger.Balance)
		authed.GET("/tokens/history", h.Ledger.History)

		authed.POST("/materials", h.Material.Upload)
		authed.GET("/materials/mine", h.Material.OwnList)
		authed.POST("/materials/:id/download", h.Material.Download)

		authed.POST("/blogs", h.Blog.Submit)
		authed.GET("/blogs/mine", h.Blog.OwnList)
		authed.POST("/videos", h.Video.Submit)
		authed.GET("/videos/mine", h.Video.OwnList)
		authed.POST("/marketplace", h.Marketplace.Submit)
		authed.GET("/marketplace/mine", h.Marketplace.OwnList)

		authed.POST("/support/queries", h.Support.CreateQuery)
		authed.GET("/support/queries", h.Support.MyQueries)

		authed.POST("/chat", h.Chat.Ask)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(authService), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", h.Dashboard.Admin)

		admin.GET("/users", h.Profile.List)
		admin.PUT("/users/:id/admin", h.Profile.SetAdmin)
		admin.DELETE("/users/:id", h.Profile.Trash)
		admin.POST("/users/:id/restore", h.Profile.Restore)
		admin.DELETE("/users/:id/permanent", h.Profile.DeletePermanent)

		admin.GET("/content/:kind/pending", h.Moderation.Pending)
		admin.POST("/content/:kind/:id/approve", h.Moderation.Approve)
		admin.POST("/content/:kind/:id/reject", h.Moderation.Reject)
		admin.DELETE("/content/:kind/:id", h.Moderation.Trash)
		admin.POST("/content/:kind/:id/restore", h.Moderation.Restore)
		admin.DELETE("/content/:kind/:id/permanent", h.Moderation.DeletePermanent)
		admin.GET("/recycle-bin", h.Moderation.RecycleBin)
		admin.POST("/materials/bulk-import", h.Moderation.BulkImport)

		admin.GET("/reports", h.Report.Get)
		admin.GET("/reports/export", h.Report.Export)

		admin.GET("/support/queries", h.Support.ListAll)
		admin.POST("/support/queries/:id/respond", h.Support.Respond)
		admin.GET("/contact", h.Support.ListContacts)
	}
}
