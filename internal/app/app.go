package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"RegulatoryScanner/internal/classifier"
	"RegulatoryScanner/internal/config"
	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/httpapi"
	"RegulatoryScanner/internal/infrastructure/auth"
	"RegulatoryScanner/internal/infrastructure/llm"
	"RegulatoryScanner/internal/infrastructure/lock"
	"RegulatoryScanner/internal/infrastructure/ml"
	"RegulatoryScanner/internal/infrastructure/parser"
	"RegulatoryScanner/internal/infrastructure/scheduler"
	"RegulatoryScanner/internal/infrastructure/storage"
	"RegulatoryScanner/internal/infrastructure/telegram"
	"RegulatoryScanner/internal/logging"
	"RegulatoryScanner/internal/ports"
	"RegulatoryScanner/internal/scanner"
	"RegulatoryScanner/internal/telemetry"
	"RegulatoryScanner/internal/usecase"
)

const fetchTimeout = 30 * time.Second

// Application owns every client and the lifecycle of the service.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	db    *sqlx.DB
	redis *redis.Client

	metrics   *telemetry.Metrics
	pipeline  *usecase.Pipeline
	articles  *usecase.ArticleService
	sessions  ports.SessionResolver
	scheduler *usecase.Scheduler
}

// New connects to Postgres (and Redis when configured) and wires the use cases.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		db:      db,
		metrics: telemetry.NewMetrics(),
	}

	var runLock ports.RunLock = lock.Noop{}
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		runLock = lock.NewRedisLock(a.redis, cfg.Redis.LockKey, cfg.Redis.LockTTL)
	}

	repo := storage.NewPostgresRepository(db)
	keywords := classifier.NewDefaultClassifier()

	var cls ports.Classifier = keywords
	if cfg.ML.InferenceURL != "" {
		cls = ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, keywords.Vocabulary())
		baseLogger.Info("using external classifier", "url", cfg.ML.InferenceURL)
	}

	var analyzer ports.Analyzer
	if cfg.ChatGPT.APIKey != "" {
		analyzer = llm.NewChatGPTClient(cfg.ChatGPT)
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram); tg.Configured() {
		notifier = tg
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     newCandidateSource(cfg, baseLogger),
		Classifier: cls,
		Analyzer:   analyzer,
		Repository: repo,
		Lock:       runLock,
		Notifier:   notifier,
		Recorder:   a.metrics,
		Logger:     baseLogger.With("component", "pipeline"),
		Workers:    cfg.Crawl.Workers,
		RunTimeout: cfg.Crawl.RunTimeout,
	})

	a.articles = usecase.NewArticleService(usecase.ArticleServiceDeps{
		Repository:    repo,
		Registrations: storage.NewRegistrationStore(db),
		Categories:    keywords,
		Classifier:    cls,
		Analyzer:      analyzer,
		Logger:        baseLogger.With("component", "articles"),
	})

	if cfg.Auth.Mode == config.AuthModeJWT {
		a.sessions = auth.NewJWTResolver(cfg.Auth.JWTSecret)
	} else {
		a.sessions = storage.NewSessionStore(db)
	}

	if cfg.Scheduler.Enabled {
		driver, err := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger.With("component", "scheduler"))
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.scheduler = usecase.NewScheduler(driver, a.pipeline, baseLogger.With("component", "scheduler"))
	}

	return a, nil
}

func newCandidateSource(cfg config.Config, logger *slog.Logger) *parser.StrategySource {
	client := &http.Client{Timeout: fetchTimeout}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewFDAScanner(client, cfg.Crawl.UserAgent, logger.With("component", "scanner.fda")))
	registry.Register(parser.NewGACCScanner(client, cfg.Crawl.UserAgent, logger.With("component", "scanner.gacc")))

	return parser.NewStrategySource(registry, cfg.Sources, logger.With("component", "source"))
}

// Crawl performs one ingestion run outside the HTTP surface.
func (a *Application) Crawl(ctx context.Context, sources []domain.Source) (domain.RunReport, error) {
	return a.pipeline.Run(ctx, usecase.TriggerCLI, sources)
}

// Serve runs the HTTP surface and the optional scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if a.cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := httpapi.NewServer(httpapi.Options{
		Addr:         a.cfg.Server.Addr,
		CronSecret:   a.cfg.Cron.Secret,
		AdminToken:   a.cfg.Admin.APIToken,
		CookieName:   a.cfg.Auth.CookieName,
		WriteTimeout: a.cfg.Crawl.RunTimeout + 30*time.Second,
	}, httpapi.Deps{
		Crawler:  a.pipeline,
		Articles: a.articles,
		Sessions: a.sessions,
		Metrics:  a.metrics,
		Logger:   a.logger.With("component", "http"),
	})

	if a.cfg.Admin.APIToken == "" {
		a.logger.Warn("admin routes are unprotected; set ADMIN_API_TOKEN")
	}

	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, fmt.Errorf("http server: %w", serveErr))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	if a.scheduler != nil {
		if err := a.scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
		}
	}
	a.logger.Info("service stopped")
	return errors.Join(errs...)
}

// Close releases database and cache connections.
func (a *Application) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
