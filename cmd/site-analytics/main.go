// cmd/site-analytics/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"site-analytics/internal/api"
	"site-analytics/internal/common/aws"
	"site-analytics/internal/common/camunda"
	"site-analytics/internal/common/config"
	"site-analytics/internal/common/database"
	httpclient "site-analytics/internal/common/http"
	"site-analytics/internal/common/logger"
	"site-analytics/internal/common/observability"
	"site-analytics/internal/pipeline"
	"site-analytics/internal/search"
	"site-analytics/internal/store"
	"site-analytics/pkg/benchmarks"

	ad "site-analytics/internal/workers/analysis/analyze-demographics"
	ec "site-analytics/internal/workers/analysis/estimate-competitors"
	ed "site-analytics/internal/workers/analysis/estimate-demand"
	er "site-analytics/internal/workers/communication/email-report"
	pae "site-analytics/internal/workers/communication/publish-analysis-event"
	lpc "site-analytics/internal/workers/geo/lookup-postal-code"
	snp "site-analytics/internal/workers/geo/search-nearby-places"
	brp "site-analytics/internal/workers/report/build-report"
	sf "site-analytics/internal/workers/simulation/simulate-funnel"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// handlers holds every task handler; the API, the pipeline and the Zeebe
// workers share the same instances.
type handlers struct {
	simulate     *sf.Handler
	demographics *ad.Handler
	competitors  *ec.Handler
	demand       *ed.Handler
	postal       *lpc.Handler
	places       *snp.Handler
	report       *brp.Handler
	email        *er.Handler
	events       *pae.Handler
}

func main() {
	configPath := flag.String("config", "", "read a single YAML file instead of configs/ with environment overlays")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting site analytics",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	if cfg.Observability.Tracing.Enabled {
		if err := obs.EnableTracing(observability.TracingConfig{
			ServiceName:    cfg.Observability.ServiceName,
			Environment:    cfg.App.Environment,
			JaegerEndpoint: cfg.Observability.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Observability.Tracing.SampleRatio,
		}); err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		zapLog.Info("Tracing enabled", zap.String("endpoint", cfg.Observability.Tracing.JaegerEndpoint))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.Migrate(ctx, store.Migrations); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var projectIndex *search.ProjectIndex
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		projectIndex = search.NewProjectIndex(esClient.Client, cfg.Database.Elasticsearch.ProjectIndex, log)
		if err := projectIndex.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("project index setup failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, project search uses PostgreSQL")
	}

	catalogue, err := benchmarks.LoadOrDefault(cfg.Benchmarks.Path)
	if err != nil {
		zapLog.Fatal("benchmark catalogue load failed", zap.Error(err))
	}

	db := store.New(pg.DB, log)

	h, err := buildHandlers(ctx, cfg, catalogue, db, rdb, log)
	if err != nil {
		zapLog.Fatal("handler init failed", zap.Error(err))
	}

	// --- Zeebe (optional) ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
	}

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.ProcessID = cfg.Camunda.ProcessID
	deps := pipeline.Dependencies{
		Store:         db.Analyses,
		Demographics:  h.demographics,
		Competitors:   h.competitors,
		Demand:        h.demand,
		Geocoder:      h.places,
		Events:        h.events,
		Observability: obs,
		Logger:        log,
	}
	if zeebe != nil {
		deps.Process = zeebe
	}
	runner := pipeline.New(pipelineCfg, deps)

	var workers []interface{ Close() }
	if zeebe != nil {
		workers = startWorkers(zeebe, cfg, h, db, log)
	}

	// --- HTTP API ---
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	apiCfg := api.DefaultConfig()
	apiCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	apiCfg.RequestsPerSec = cfg.Server.RateLimitRPS
	apiCfg.Burst = cfg.Server.RateLimitBurst

	apiDeps := api.Dependencies{
		Projects:      db.Projects,
		Simulations:   db.Simulations,
		Analyses:      db.Analyses,
		Catalogue:     catalogue,
		Simulator:     h.simulate,
		Pipeline:      runner,
		Postal:        h.postal,
		Places:        h.places,
		Reports:       h.report,
		Mailer:        h.email,
		Observability: obs,
		Logger:        log,
	}
	if projectIndex != nil {
		apiDeps.Search = projectIndex
	}
	server := api.NewServer(apiCfg, apiDeps)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("API server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("API server failed", zap.Error(err))
		}
	}()

	opsServer := newOpsServer(cfg.Server.OpsAddress, pg, rdb, zeebe)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.OpsAddress))
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("API server shutdown failed", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("pipeline shutdown incomplete", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("ops server shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Site analytics stopped gracefully")
}

func buildHandlers(ctx context.Context, cfg *config.Config, catalogue *benchmarks.Catalogue, db *store.Store, rdb *database.RedisClient, log logger.Logger) (*handlers, error) {
	h := &handlers{}

	sfCfg := sf.LoadConfig()
	sfCfg.Timeout = workerTimeout(cfg, sf.TaskType, sfCfg.Timeout)
	h.simulate = sf.NewHandler(sfCfg, catalogue, log)

	adCfg := ad.LoadConfig()
	adCfg.Timeout = workerTimeout(cfg, ad.TaskType, adCfg.Timeout)
	h.demographics = ad.NewHandler(adCfg, catalogue, log)

	edCfg := ed.LoadConfig()
	edCfg.Timeout = workerTimeout(cfg, ed.TaskType, edCfg.Timeout)
	h.demand = ed.NewHandler(edCfg, catalogue, log)

	gm := cfg.APIs.GoogleMaps
	snpCfg := snp.LoadConfig()
	snpCfg.Timeout = config.GetDuration(gm.Timeout)
	snpCfg.APIKey = gm.APIKey
	snpCfg.BaseURL = gm.BaseURL
	snpCfg.Language = gm.Language
	snpCfg.DefaultRadiusM = int(gm.DefaultRadiusM)
	snpCfg.MaxResults = gm.MaxResultsLimit
	places, err := snp.NewHandler(snpCfg, catalogue, rdb.Client, httpclient.NewLimiter(gm.RequestsPerSec, gm.Burst), log)
	if err != nil {
		return nil, err
	}
	h.places = places

	ecCfg := ec.LoadConfig()
	ecCfg.Timeout = workerTimeout(cfg, ec.TaskType, ecCfg.Timeout)
	ecCfg.DefaultRadiusM = int(gm.DefaultRadiusM)
	h.competitors = ec.NewHandler(ecCfg, catalogue, places, log)

	zc := cfg.APIs.Zipcloud
	lpcCfg := lpc.LoadConfig()
	lpcCfg.Timeout = config.GetDuration(zc.Timeout)
	lpcCfg.BaseURL = zc.BaseURL
	h.postal = lpc.NewHandler(lpcCfg, httpclient.NewClient(lpcCfg.Timeout, httpclient.NewLimiter(zc.RequestsPerSec, zc.Burst)), rdb.Client, log)

	brpCfg := brp.LoadConfig()
	brpCfg.Timeout = workerTimeout(cfg, brp.TaskType, brpCfg.Timeout)
	brpCfg.Title = cfg.Reports.Title
	brpCfg.FontPath = cfg.Reports.FontPath
	h.report = brp.NewHandler(brpCfg, db, log)

	awsCfg := cfg.Integrations.AWS
	erCfg := er.LoadConfig()
	erCfg.Timeout = workerTimeout(cfg, er.TaskType, erCfg.Timeout)
	erCfg.MaxAttachmentBytes = cfg.Reports.MaxAttachB
	if awsCfg.SES.FromEmail != "" {
		erCfg.FromEmail = awsCfg.SES.FromEmail
	}
	var mailer er.Mailer
	if awsCfg.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, awsCfg.Region)
		if err != nil {
			return nil, err
		}
		mailer = sesClient
	}
	h.email = er.NewHandler(erCfg, h.report, mailer, log)

	paeCfg := pae.LoadConfig()
	paeCfg.Timeout = workerTimeout(cfg, pae.TaskType, paeCfg.Timeout)
	var publisher pae.Publisher
	if awsCfg.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, awsCfg.Region)
		if err != nil {
			return nil, err
		}
		publisher = snsClient
		paeCfg.TopicARN = awsCfg.SNS.TopicARN
	}
	h.events = pae.NewHandler(paeCfg, publisher, log)

	return h, nil
}

// workerTimeout prefers the configured worker timeout over the package default.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if w, ok := cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	return fallback
}
