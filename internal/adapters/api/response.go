package api

import (
	"github.com/gin-gonic/gin"
)

// respondData writes the success envelope.
func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError writes the error envelope shared with the authentication
// middleware.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": message},
	})
}
