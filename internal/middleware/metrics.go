package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type requestObserver interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

const unmatchedRoute = "unmatched"

// Metrics reports every request under its route template so ids in the path
// do not explode label cardinality. Requests that match no route share one
// label.
func Metrics(observer requestObserver) gin.HandlerFunc {
	if observer == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
