package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/PancyStudios/MarvinGo/pkg/config"
	"github.com/PancyStudios/MarvinGo/pkg/metrics"
	"github.com/PancyStudios/MarvinGo/pkg/models"
	"github.com/PancyStudios/MarvinGo/pkg/moderation"
	"github.com/gin-gonic/gin"
)

// DatabaseStatus reports the audit database connection
type DatabaseStatus interface {
	GetStatus() (string, bool)
	QueueLength() int
}

// AuditReader reads stored moderation records
type AuditReader interface {
	Recent(ctx context.Context, kind models.RecordKind, limit int64) ([]*models.ModerationRecord, error)
	Get(ctx context.Context, id string) (*models.ModerationRecord, error)
}

// Sources are the components the API reports on. Nil fields are skipped.
type Sources struct {
	StartTime time.Time
	Gate      func() moderation.Stats
	Database  DatabaseStatus
	Audit     AuditReader
	MQTT      func() bool
}

// SetupAPIRoutes sets up the API routes and /metrics
func SetupAPIRoutes(s *Server, src Sources) {
	api := s.Group("/api")
	{
		api.GET("/health", healthHandler)
		api.GET("/status", statusHandler(src))
		if src.Audit != nil {
			api.GET("/audit", auditHandler(src.Audit))
			api.GET("/audit/:id", auditRecordHandler(src.Audit))
		}
	}
	s.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Marvin is running",
	})
}

// statusHandler reports uptime, moderation counters and backing services
func statusHandler(src Sources) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":  "ok",
			"version": config.Version,
			"uptime":  time.Since(src.StartTime).Round(time.Second).String(),
		}
		if src.Gate != nil {
			body["moderation"] = src.Gate()
		}
		if src.Database != nil {
			status, online := src.Database.GetStatus()
			body["database"] = gin.H{"status": status, "isOnline": online, "queued": src.Database.QueueLength()}
		}
		if src.MQTT != nil {
			body["mqtt"] = gin.H{"isOnline": src.MQTT()}
		}
		c.JSON(http.StatusOK, body)
	}
}

// auditHandler lists the newest moderation records: ?kind=post_removed&limit=20
func auditHandler(audit AuditReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
		if err != nil || limit <= 0 || limit > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}

		records, err := audit.Recent(c.Request.Context(), models.RecordKind(c.Query("kind")), limit)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if records == nil {
			records = []*models.ModerationRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

// auditRecordHandler returns a single moderation record by id
func auditRecordHandler(audit AuditReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		record, err := audit.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		if record == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record non trovato"})
			return
		}
		c.JSON(http.StatusOK, record)
	}
}
