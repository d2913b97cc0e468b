package v1

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchdeck-platform/apperrors"
)

// respondError writes a classified error with its stable code. Internal
// errors are logged but never leak their message to the client.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "Internal server error"
	}
	c.JSON(status, gin.H{
		"status":  "error",
		"code":    apperrors.Code(err),
		"message": message,
	})
}
