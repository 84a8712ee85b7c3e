package middleware

import (
	"fmt"
	"net/http"

	"battery-revenue/internal/api/models"
	"battery-revenue/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers panics into an INTERNAL_ERROR response
func ErrorHandler(log *logger.Log) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		log.WithComponent("api").WithFields(logger.Fields{
			"path":  c.Request.URL.Path,
			"panic": fmt.Sprint(recovered),
		}).Error("request panicked")

		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	})
}
