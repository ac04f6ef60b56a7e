// internal/bootstrap/app.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"msme-lender-platform/internal/api"
	"msme-lender-platform/internal/applications"
	"msme-lender-platform/internal/archives"
	awsclient "msme-lender-platform/internal/common/aws"
	"msme-lender-platform/internal/common/camunda"
	"msme-lender-platform/internal/common/config"
	"msme-lender-platform/internal/common/database"
	"msme-lender-platform/internal/common/logger"
	"msme-lender-platform/internal/common/observability"
	"msme-lender-platform/internal/lenders"
	"msme-lender-platform/internal/notify"
	"msme-lender-platform/internal/scoring"
	"msme-lender-platform/internal/search"
	"msme-lender-platform/internal/uploads"
	cla "msme-lender-platform/internal/workers/lending/calculate-lender-assignment"
	uas "msme-lender-platform/internal/workers/lending/update-application-status"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"
)

const (
	uploadPrefix  = "uploads"
	archivePrefix = "archives"
)

type Options struct {
	Retry Retry
	// Registry receives the HTTP and job metrics. Nil uses the default
	// Prometheus registry.
	Registry *prometheus.Registry
	// StorageOptions are passed to the GCS client.
	StorageOptions []option.ClientOption
}

// App is the fully wired marketplace service.
type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Stores        *Stores
	Lenders       *lenders.Service
	Applications  *applications.Service
	Uploads       *uploads.Service
	Archives      *archives.Service
	Observability *observability.Observability
	Router        *gin.Engine
	Workers       *camunda.Registry

	checks  map[string]api.ReadyCheck
	closers []func(context.Context) error
}

// New connects every configured backend, seeds the default lenders on an
// empty store and builds the HTTP router.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  log,
		Workers: &camunda.Registry{},
		checks:  map[string]api.ReadyCheck{},
	}

	metricsHandler := promhttp.Handler()
	if opts.Registry != nil {
		a.Observability = observability.NewWithRegisterer(cfg.App.Name, opts.Registry, log)
		metricsHandler = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
	} else {
		a.Observability = observability.New(cfg.App.Name, log)
	}
	a.closers = append(a.closers, a.Observability.Shutdown)

	if err := a.build(ctx, opts); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Router = api.SetupRouter(api.Options{
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		StoreDriver: cfg.Database.Driver,
		ClientURL:   cfg.Server.ClientURL,
		BodyLimit:   int64(cfg.Server.BodyLimitMB) << 20,
		UploadLimit: cfg.Storage.MaxFileSize*int64(cfg.Storage.MaxFileCount) + 1<<20,
		StaticDir:   a.staticDir(),
	}, api.Dependencies{
		Applications:  a.Applications,
		Lenders:       a.Lenders,
		Uploads:       a.Uploads,
		Archives:      a.Archives,
		Observability: a.Observability,
		Metrics:       metricsHandler,
		Checks:        a.checks,
		Logger:        log,
	})
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg, log := a.Config, a.Logger

	stores, err := OpenStores(ctx, cfg, log, opts.Retry)
	if err != nil {
		return err
	}
	a.Stores = stores
	a.closers = append(a.closers, stores.Close)
	for name, check := range stores.Checks {
		a.checks[name] = check
	}

	a.Lenders = lenders.NewService(stores.Lenders, cfg.Lenders.DefaultsPath, log)
	if err := a.Lenders.Initialize(ctx, a.Lenders.LoadDefaults()); err != nil {
		return fmt.Errorf("initialize default lenders: %w", err)
	}

	engine := scoring.NewEngine(scoring.Options{
		Currency:  cfg.Scoring.Currency,
		MaxOffers: cfg.Scoring.MaxOffers,
		MinScore:  cfg.Scoring.MinScore,
	}, log)

	var appOpts []applications.Option
	if cfg.Search.Enabled {
		idx, err := a.openSearch(ctx, opts.Retry)
		if err != nil {
			return err
		}
		appOpts = append(appOpts, applications.WithIndex(idx))
	}
	if n, err := a.newNotifier(ctx); err != nil {
		return err
	} else if n != nil {
		appOpts = append(appOpts, applications.WithNotifier(n))
	}
	a.Applications = applications.NewService(stores.Applications, a.Lenders, engine, log, appOpts...)

	uploadBackend, archiveBackend, err := a.openStorage(ctx, opts.StorageOptions)
	if err != nil {
		return err
	}
	a.Uploads = uploads.NewService(uploadBackend, cfg.Storage.MaxFileSize, cfg.Storage.MaxFileCount, log)
	a.Archives = archives.NewService(stores.Applications, archiveBackend, log)
	return nil
}

func (a *App) openSearch(ctx context.Context, retry Retry) (*search.Index, error) {
	var es *database.ElasticsearchClient
	err := retryWithBackoff(ctx, retry, a.Logger, "Elasticsearch connection", func() error {
		var err error
		es, err = database.NewElasticsearch(a.Config.Search.Elasticsearch)
		if err != nil {
			return err
		}
		return es.Ping(ctx)
	})
	if err != nil {
		return nil, err
	}
	a.checks["elasticsearch"] = es.Ping
	a.Logger.Info("Elasticsearch connected successfully", map[string]interface{}{"index": a.Config.Search.Index})
	return search.NewIndex(es.Client, a.Config.Search.Index, a.Logger), nil
}

// newNotifier returns nil when no channel is enabled.
func (a *App) newNotifier(ctx context.Context) (*notify.StatusNotifier, error) {
	nc := a.Config.Notifications
	if !nc.Email.Enabled && !nc.SMS.Enabled {
		return nil, nil
	}

	var (
		email notify.EmailSender
		sms   notify.SMSSender
	)
	if nc.Email.Enabled {
		c, err := awsclient.NewSESClient(ctx, nc.AWS.Region, nc.Email.FromEmail)
		if err != nil {
			return nil, err
		}
		email = c
	}
	if nc.SMS.Enabled {
		c, err := awsclient.NewSNSClient(ctx, nc.AWS.Region, nc.SMS.SenderID)
		if err != nil {
			return nil, err
		}
		sms = c
	}
	a.Logger.Info("status notifications enabled", map[string]interface{}{
		"email": nc.Email.Enabled,
		"sms":   nc.SMS.Enabled,
	})
	return notify.NewStatusNotifier(email, sms, a.Logger), nil
}

// openStorage returns the upload backend and the backend archive copies are
// written to.
func (a *App) openStorage(ctx context.Context, gcsOpts []option.ClientOption) (uploads.Backend, uploads.Backend, error) {
	sc := a.Config.Storage
	if sc.Backend == config.StorageGCS {
		client, err := storage.NewClient(ctx, gcsOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return uploads.NewGCSBackend(client, sc.Bucket, uploadPrefix),
			uploads.NewGCSBackend(client, sc.Bucket, archivePrefix), nil
	}

	up, err := uploads.NewLocalBackend(sc.UploadDir)
	if err != nil {
		return nil, nil, err
	}
	arch, err := uploads.NewLocalBackend(sc.ArchiveDir)
	if err != nil {
		return nil, nil, err
	}
	return up, arch, nil
}

func (a *App) staticDir() string {
	if a.Config.Storage.Backend == config.StorageLocal {
		return a.Config.Storage.UploadDir
	}
	return ""
}

// ConnectZeebe dials the gateway until a topology request succeeds.
func ConnectZeebe(ctx context.Context, cfg *config.Config, log logger.Logger, retry Retry) (*camunda.Client, error) {
	var client *camunda.Client
	err := retryWithBackoff(ctx, retry, log, "Zeebe client initialization", func() error {
		var err error
		client, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Zeebe client connected successfully", map[string]interface{}{"gateway": cfg.Camunda.BrokerAddress})
	return client, nil
}

// StartWorkers opens a job worker for every enabled lending task.
func (a *App) StartWorkers(client *camunda.Client) {
	a.checks["zeebe"] = client.HealthCheck

	zb := client.GetClient()
	if c := cla.LoadConfig(a.Config); c.Enabled {
		h := cla.NewHandler(c, a.Applications, a.Logger)
		a.Workers.Add(camunda.NewWorker(zb, cla.TaskType, camunda.WorkerOptions{
			MaxJobsActive: c.MaxJobsActive,
			Timeout:       c.Timeout,
		}, h, a.Observability, a.Logger))
	}
	if c := uas.LoadConfig(a.Config); c.Enabled {
		h := uas.NewHandler(c, a.Applications, a.Logger)
		a.Workers.Add(camunda.NewWorker(zb, uas.TaskType, camunda.WorkerOptions{
			MaxJobsActive: c.MaxJobsActive,
			Timeout:       c.Timeout,
		}, h, a.Observability, a.Logger))
	}
	a.Logger.Info("workers registered", map[string]interface{}{"taskTypes": a.Workers.TaskTypes()})
}

// Server returns an http.Server for the router using the configured
// timeouts.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  config.GetDuration(a.Config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(a.Config.Server.WriteTimeout),
	}
}

// Close stops workers, then releases backends in reverse order.
func (a *App) Close(ctx context.Context) error {
	a.Workers.StopAll()

	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
