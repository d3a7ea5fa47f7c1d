package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/alvishnu/school-desk/pkg/errors"
)

// The sandbox speaks the legacy wire contract: every envelope carries a
// success boolean, success envelopes carry data under a payload key, failure
// envelopes carry error and/or message strings instead.

// OK sends a success envelope with the given payload fields merged in.
func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Data sends a success envelope with the payload under "data".
func Data(c *gin.Context, status int, data interface{}) {
	OK(c, status, gin.H{"data": data})
}

// Message sends a payloadless success envelope.
func Message(c *gin.Context, status int, message string) {
	OK(c, status, gin.H{"message": message})
}

// Error sends a failure envelope derived from the classified error.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	status := appErr.Status
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   appErr.Message,
	})
}

// Reject sends a failure envelope with an explicit status and reason.
func Reject(c *gin.Context, status int, reason string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   reason,
	})
}
