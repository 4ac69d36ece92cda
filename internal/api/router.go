package api

import (
	"log/slog"
	"net/http"

	"memberhub/internal/analytics"
	"memberhub/internal/config"
	"memberhub/internal/importer"
	"memberhub/internal/members"
	"memberhub/internal/report"
	"memberhub/internal/webhook"
	"memberhub/internal/ws"

	"github.com/gin-gonic/gin"
)

// Deps are the components the HTTP API is wired to.
type Deps struct {
	Members     *members.Service
	Engine      *analytics.Engine
	Assembler   *report.Assembler
	Importer    *importer.Importer
	Fetcher     *importer.Fetcher
	Runtime     *config.Runtime
	Client      *webhook.Client
	Hub         *ws.Hub
	ImportBatch bool
	Log         *slog.Logger
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Report-Warning, X-Report-Charts")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), cors())

	st := d.Members.Store()
	memberHandler := NewMemberHandler(d.Members, d.Log)
	analyticsHandler := NewAnalyticsHandler(st, d.Engine, d.Log)
	importHandler := NewImportHandler(d.Importer, d.Fetcher, d.ImportBatch, d.Log)
	reportHandler := NewReportHandler(d.Members, d.Assembler, d.Log)
	settingsHandler := NewSettingsHandler(d.Runtime, d.Members, d.Log)
	imageHandler := NewImageHandler(d.Client, d.Log)
	syncHandler := NewSyncHandler(st, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			d.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	apiGroup := r.Group("/api")
	{
		// Member Routes
		apiGroup.GET("/members", memberHandler.GetMembers)
		apiGroup.GET("/members/export", memberHandler.ExportMembers)
		apiGroup.POST("/members/refresh", memberHandler.RefreshMembers)
		apiGroup.GET("/members/:id", memberHandler.GetMember)
		apiGroup.POST("/members", memberHandler.CreateMember)
		apiGroup.PUT("/members/:id", memberHandler.UpdateMember)
		apiGroup.DELETE("/members/:id", memberHandler.DeleteMember)

		// Import Routes
		apiGroup.POST("/import/validate", importHandler.ValidateImport)
		apiGroup.POST("/import", importHandler.ImportFile)
		apiGroup.POST("/import/url", importHandler.ImportURL)
		apiGroup.GET("/import/progress", importHandler.GetProgress)

		// Analytics Routes
		apiGroup.GET("/stats", analyticsHandler.GetStats)
		apiGroup.GET("/analytics", analyticsHandler.GetAnalytics)
		apiGroup.GET("/analytics/birthdays", analyticsHandler.GetBirthdays)
		apiGroup.GET("/report", reportHandler.DownloadReport)

		// Settings Routes
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.PUT("/settings", settingsHandler.UpdateSettings)
		apiGroup.DELETE("/settings", settingsHandler.ResetSettings)
		apiGroup.POST("/settings/test", settingsHandler.TestConnection)

		apiGroup.GET("/images", imageHandler.GetImage)
		apiGroup.GET("/sync/logs", syncHandler.GetLogs)
	}

	return r
}
