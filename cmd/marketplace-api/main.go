// cmd/marketplace-api/main.go
package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"msme-lender-platform/internal/bootstrap"
	"msme-lender-platform/internal/common/camunda"
	"msme-lender-platform/internal/common/config"
	"msme-lender-platform/internal/common/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	zapLog := logger.New("info", "console", "stdout")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output).
		WithFields(map[string]interface{}{"service": cfg.App.Name, "version": cfg.App.Version})
	log.Info("Starting marketplace API...", map[string]interface{}{
		"environment": cfg.App.Environment,
		"driver":      cfg.Database.Driver,
		"storage":     cfg.Storage.Backend,
	})

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Retry: bootstrap.DefaultRetry})
	if err != nil {
		zapLog.Fatal("startup failed", zap.Error(err))
	}

	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		zeebe, err = bootstrap.ConnectZeebe(ctx, cfg, log, bootstrap.DefaultRetry)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		app.StartWorkers(zeebe)
	}

	srv := app.Server()
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown", map[string]interface{}{"error": err.Error()})
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("closing backends", map[string]interface{}{"error": err.Error()})
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}
	log.Info("Marketplace API stopped gracefully", nil)
}
