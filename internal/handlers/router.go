package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "spinwheel"

// RouterOptions configures the middleware stack in front of the handlers.
type RouterOptions struct {
	SessionSecret []byte

	// CORSOrigins lists the allowed origins; empty or "*" allows any.
	CORSOrigins []string

	// BodyLimit caps request bodies in bytes; zero disables the cap.
	BodyLimit int64
}

// NewRouter builds the gin engine with sessions, compression, CORS and the
// body limit, then registers h's routes.
func NewRouter(h *HTTPHandler, opts RouterOptions) *gin.Engine {
	engine := gin.Default()

	engine.Use(cors.New(corsConfig(opts.CORSOrigins)))
	// Spin responses are tiny and latency sensitive.
	engine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`^/api/wheels/[^/]+/spin$`})))

	store := cookie.NewStore(opts.SessionSecret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((12 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(sessionCookieName, store))

	if opts.BodyLimit > 0 {
		engine.Use(limitBody(opts.BodyLimit))
	}

	h.RegisterRoutes(engine)
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Session-Id", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	var explicit []string
	for _, o := range origins {
		if o == "*" {
			explicit = nil
			break
		}
		if o != "" {
			explicit = append(explicit, o)
		}
	}
	if len(explicit) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = explicit
	cfg.AllowCredentials = true
	return cfg
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
