package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	exposeHeaders = "X-Request-ID, X-Cache, Content-Disposition"
)

// allowList holds normalised origins. Empty means every origin is admitted.
type allowList map[string]struct{}

func newAllowList(origins []string) allowList {
	list := make(allowList, len(origins))
	for _, origin := range origins {
		if normalised := normalise(origin); normalised != "" {
			list[normalised] = struct{}{}
		}
	}
	return list
}

func (l allowList) open() bool {
	return len(l) == 0
}

func (l allowList) allows(origin string) bool {
	if l.open() {
		return true
	}
	_, ok := l[normalise(origin)]
	return ok
}

func normalise(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

// New returns the CORS middleware for the timetable API. Credentials are only
// advertised when a listed origin is echoed back, never alongside "*".
func New(allowedOrigins []string) gin.HandlerFunc {
	origins := newAllowList(allowedOrigins)

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && origins.allows(origin):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && origins.open():
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Expose-Headers", exposeHeaders)
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
