package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Logout clears the auth cookie
func Logout(c *gin.Context) {
	c.SetCookie("access_token", "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Logged out successfully",
	})
}
