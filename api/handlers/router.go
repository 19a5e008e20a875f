package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// RouterConfig collects the handlers mounted by NewRouter. Nil handlers are
// skipped.
type RouterConfig struct {
	Analysis  *AnalysisHandler
	Sessions  *SessionHandler
	Jobs      *JobHandler
	WebSocket *WebSocketHandler
	Limiter   *IPRateLimiter
	Metrics   http.Handler
	StaticDir string
	Logger    *slog.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), CORS())

	if cfg.Sessions != nil {
		r.GET("/health", cfg.Sessions.Health)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}
	if cfg.Analysis != nil {
		var mw []gin.HandlerFunc
		if cfg.Limiter != nil {
			mw = append(mw, RateLimit(cfg.Limiter))
		}
		cfg.Analysis.RegisterRoutes(r, mw...)
	}
	if cfg.WebSocket != nil {
		cfg.WebSocket.RegisterRoutes(r)
	}

	api := r.Group("/api")
	{
		if cfg.Sessions != nil {
			cfg.Sessions.RegisterRoutes(api)
		}
		if cfg.Jobs != nil {
			cfg.Jobs.RegisterRoutes(api)
		}
	}

	if cfg.StaticDir != "" {
		r.NoRoute(staticFallback(cfg.StaticDir))
	}
	return r
}

// staticFallback serves files from dir and falls back to index.html so
// client-side routes resolve.
func staticFallback(dir string) gin.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			sendError(c, http.StatusNotFound, "NOT_FOUND", "No route for "+c.Request.URL.Path)
			return
		}

		path := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+c.Request.URL.Path)))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.File(index)
	}
}
