// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultBodyLimit = 10 << 20
	readyTimeout     = 3 * time.Second
)

// ReadyCheck reports whether one dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Options struct {
	ServiceName string
	Version     string
	StoreDriver string
	ClientURL   string
	// BodyLimit caps JSON bodies. Upload routes get UploadLimit instead.
	BodyLimit   int64
	UploadLimit int64
	// StaticDir serves /uploads/* from disk when set.
	StaticDir string
}

type Dependencies struct {
	Applications  ApplicationService
	Lenders       LenderService
	Uploads       UploadService
	Archives      ArchiveService
	Observability *observability.Observability
	Metrics       http.Handler
	Checks        map[string]ReadyCheck
	Logger        logger.Logger
}

// SetupRouter wires every route onto a new engine.
func SetupRouter(opts Options, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"component": "api"})

	r := gin.New()
	r.Use(Recovery(log))
	r.Use(RequestLogger(log))
	r.Use(cors.New(corsConfig(opts.ClientURL)))
	if deps.Observability != nil {
		r.Use(deps.Observability.HTTPMiddleware())
	}

	bodyLimit := opts.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}
	uploadLimit := opts.UploadLimit
	if uploadLimit <= 0 {
		uploadLimit = 6 * defaultBodyLimit
	}

	r.GET("/api/health", healthHandler(opts))
	r.GET("/ready", readyHandler(deps.Checks))
	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	if opts.StaticDir != "" {
		r.Static("/uploads", opts.StaticDir)
	}

	api := r.Group("/api")
	jsonRoutes := api.Group("", BodyLimit(bodyLimit))
	if deps.Applications != nil {
		NewApplicationHandler(deps.Applications, log).register(jsonRoutes.Group("/applications"))
	}
	if deps.Lenders != nil {
		NewLenderHandler(deps.Lenders, log).register(jsonRoutes.Group("/lenders"))
	}
	if deps.Archives != nil {
		NewArchiveHandler(deps.Archives, log).register(jsonRoutes.Group("/archives"))
	}
	if deps.Uploads != nil {
		NewUploadHandler(deps.Uploads, log).register(api.Group("/upload", BodyLimit(uploadLimit)))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}

func corsConfig(clientURL string) cors.Config {
	if clientURL == "" {
		clientURL = "http://localhost:3000"
	}
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = []string{clientURL}
	cfg.AllowCredentials = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}

func healthHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"service":   opts.ServiceName,
			"version":   opts.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  gin.H{"driver": opts.StoreDriver},
		})
	}
}

// readyHandler runs every check. Any failure makes the service unready.
func readyHandler(checks map[string]ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				ready = false
				continue
			}
			results[name] = "ok"
		}

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not ready"
		}
		c.JSON(status, gin.H{
			"status": label,
			"checks": results,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
