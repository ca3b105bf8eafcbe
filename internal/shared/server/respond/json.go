package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 {ok:true, <key>: value} envelope.
func OK(c *gin.Context, key string, value interface{}) {
	JSON(c, http.StatusOK, gin.H{"ok": true, key: value})
}
