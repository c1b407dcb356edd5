package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ClusterMST/pkg/errors"
)

// BodyLimit caps request bodies at maxBytes. Requests announcing a larger
// body are rejected up front; others fail when the handler reads past the
// limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorBody{
				Code:      string(errors.ErrCodePayloadTooLarge),
				Message:   errors.DefaultMessageForCode(errors.ErrCodePayloadTooLarge),
				RequestID: GetRequestID(c),
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
