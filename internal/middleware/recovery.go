package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mythos-labs/mythos-api/internal/envelope"
	"go.uber.org/zap"
)

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.String("request_id", c.GetString("request_id")),
					zap.Any("panic", err),
				)

				c.JSON(http.StatusInternalServerError,
					envelope.Err(c.Request.URL.Path, "Internal Server Error"))
				c.Abort()
			}
		}()
		c.Next()
	}
}
