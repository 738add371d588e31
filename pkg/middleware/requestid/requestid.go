package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation id in both directions.
const Header = "X-Request-ID"

const (
	contextKey   = "request_id"
	maxInboundID = 128
)

// Middleware reuses a caller supplied X-Request-ID or mints a UUID, and echoes
// it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" || len(id) > maxInboundID {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request id, or "" outside the middleware.
func Value(c *gin.Context) string {
	return c.GetString(contextKey)
}
