package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
	"RegulatoryScanner/internal/telemetry"
)

const (
	readTimeout = 10 * time.Second
	idleTimeout = 120 * time.Second
)

// Crawler runs one ingestion pass.
type Crawler interface {
	Run(ctx context.Context, trigger string, sources []domain.Source) (domain.RunReport, error)
}

// Articles is the query layer exposed to admins and clients.
type Articles interface {
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	UpdateStatus(ctx context.Context, id, status string) (domain.ArticleStatus, error)
	RelevantNews(ctx context.Context, clientID string) ([]domain.Article, error)
	Reclassify(ctx context.Context, id string) (domain.Article, error)
}

// Options carries the HTTP surface configuration.
type Options struct {
	Addr         string
	CronSecret   string
	AdminToken   string
	CookieName   string
	WriteTimeout time.Duration
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Crawler  Crawler
	Articles Articles
	Sessions ports.SessionResolver
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger
}

// Server owns the gin engine and the listener.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer registers every route.
func NewServer(opts Options, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "client_session"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(metricsMiddleware(deps.Metrics))

	h := &handlers{
		crawler:    deps.Crawler,
		articles:   deps.Articles,
		sessions:   deps.Sessions,
		cronSecret: opts.CronSecret,
		cookieName: opts.CookieName,
		logger:     logger,
	}

	router.GET("/health", h.health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/crawl/cron", h.cronCrawl)

	admin := router.Group("/", adminAuth(opts.AdminToken))
	admin.POST("/crawl", h.crawl)
	admin.GET("/articles", h.listArticles)
	admin.GET("/articles/:id", h.getArticle)
	admin.POST("/articles/status", h.updateStatus)
	admin.POST("/articles/reclassify", h.reclassify)

	router.GET("/client/news", h.clientNews)

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 330 * time.Second
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: readTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown; http.ErrServerClosed is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
