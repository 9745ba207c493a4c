package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mythos-labs/mythos-api/internal/models"
	"github.com/mythos-labs/mythos-api/internal/repository"
	"go.uber.org/zap"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// Initializes the request logger
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int, logger *zap.Logger) {
	logChannel = make(chan models.RequestLog, bufferSize)

	// Start background worker to batch insert logs
	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)

				if len(batch) >= 100 {
					insertBatch(repo, batch, logger)
					batch = make([]models.RequestLog, 0, 100)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					insertBatch(repo, batch, logger)
					batch = make([]models.RequestLog, 0, 100)
				}
			}
		}
	}()
}

func insertBatch(repo *repository.RequestLogRepository, logs []models.RequestLog, logger *zap.Logger) {
	if len(logs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := make([]*models.RequestLog, len(logs))
	for i := range logs {
		batch[i] = &logs[i]
	}

	if err := repo.CreateBatch(ctx, batch); err != nil {
		// Log error but dont block
		logger.Warn("failed to insert request logs", zap.Error(err))
	}
}

// resourceSegment extracts the first path segment under /v1 for per-resource
// analytics.
func resourceSegment(path string) string {
	rest, ok := strings.CutPrefix(path, "/v1/")
	if !ok {
		return ""
	}

	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// Logs all HTTP requests
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		var apiKeyID *uuid.UUID
		if apiKeyInterface, exists := c.Get(CtxAPIKey); exists {
			if key, ok := apiKeyInterface.(*models.APIKey); ok && key != nil {
				id := key.ID
				apiKeyID = &id
			}
		}

		logEntry := models.RequestLog{
			Timestamp:      start,
			APIKeyID:       apiKeyID,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			Resource:       resourceSegment(c.Request.URL.Path),
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		select {
		case logChannel <- logEntry:
			// Successfully queued
		default:
			// Channel full, skip logging to avoid blocking
			logger.Warn("request log channel full, dropping entry")
		}
	}
}
