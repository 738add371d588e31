package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const responseMetaKey = "response_meta"

type responseMeta struct {
	started  time.Time
	cacheHit *bool
}

// WithResponseMeta stamps the request start so handlers can report timing and
// cache usage in the envelope meta block.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now()})
		c.Next()
	}
}

// SetCacheHit marks whether the response body came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	metaFrom(c).cacheHit = &hit
}

// ExtractMeta renders the meta block for the current response.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := metaFrom(c)
	out := map[string]interface{}{
		"processing_time_ms": time.Since(meta.started).Milliseconds(),
	}
	if meta.cacheHit != nil {
		out["cache_hit"] = *meta.cacheHit
	}
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(*responseMeta); ok {
			return meta
		}
	}
	meta := &responseMeta{started: time.Now()}
	c.Set(responseMetaKey, meta)
	return meta
}
