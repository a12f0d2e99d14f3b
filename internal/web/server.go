package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/klu-lostfound/internal/advisor"
	"github.com/klu-lostfound/internal/imagesim"
	"github.com/klu-lostfound/internal/match"
	"github.com/klu-lostfound/internal/search"
	"github.com/klu-lostfound/internal/web/handlers"
	"github.com/klu-lostfound/internal/web/middleware"
)

// Deps are the services the server routes to
type Deps struct {
	Reports  handlers.ReportSource
	Recorder handlers.MatchRecorder // optional
	DB       handlers.Pinger        // optional

	Engine   *match.Engine
	Searcher *search.Searcher
	Advisor  *advisor.Advisor
	Images   *imagesim.Comparator // optional

	Options     match.Options
	Exploratory match.Options

	Clock clockwork.Clock
}

// Server represents the web server
type Server struct {
	config      *Config
	deps        Deps
	httpServer  *http.Server
	router      *mux.Router
	handler     http.Handler
	rateLimiter *middleware.IPRateLimiter
}

// NewServer creates a new web server instance
func NewServer(config *Config, deps Deps) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Reports == nil || deps.Engine == nil {
		return nil, errors.New("report source and match engine are required")
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Searcher == nil {
		deps.Searcher = search.NewSearcher(search.DefaultConfig(), deps.Engine.Scorer())
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.New(advisor.DefaultConfig(), deps.Clock)
	}

	server := &Server{
		config: config,
		deps:   deps,
	}

	if config.RateLimit.Enabled {
		server.rateLimiter = middleware.NewIPRateLimiter(config.RateLimit.RequestsPerMinute, config.RateLimit.Burst, deps.Clock)
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      server.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	handlerConfig := &handlers.Config{
		Options:     s.deps.Options,
		Exploratory: s.deps.Exploratory,
	}
	handlerConfig.Features.RecordHistory = s.config.Features.RecordHistory
	handlerConfig.Features.EnhancedEnabled = s.config.Features.EnhancedEnabled

	apiHandler := &handlers.APIHandler{Reports: s.deps.Reports, DB: s.deps.DB}
	recordsHandler := &handlers.RecordsHandler{Reports: s.deps.Reports}
	matchesHandler := &handlers.MatchesHandler{
		Reports:  s.deps.Reports,
		Recorder: s.deps.Recorder,
		Engine:   s.deps.Engine,
		Config:   handlerConfig,
	}
	searchHandler := &handlers.SearchHandler{
		Reports:  s.deps.Reports,
		Searcher: s.deps.Searcher,
		Scorer:   s.deps.Engine.Scorer(),
		Advisor:  s.deps.Advisor,
		Images:   s.deps.Images,
	}

	s.router.HandleFunc("/healthz", apiHandler.Health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Reports
	api.HandleFunc("/reports", recordsHandler.ListReports).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}", recordsHandler.GetRecord).Methods("GET")
	api.HandleFunc("/reports/{id:[0-9]+}/matches", matchesHandler.ReportMatches).Methods("GET")

	// Matching runs
	api.HandleFunc("/matches", matchesHandler.FindMatches).Methods("GET")
	api.HandleFunc("/matches/exploratory", matchesHandler.ExploratoryMatches).Methods("GET")
	if s.config.Features.EnhancedEnabled {
		api.HandleFunc("/matches/enhanced", matchesHandler.EnhancedMatches).Methods("GET")
	}

	// Search and report helpers
	api.HandleFunc("/search", searchHandler.Search).Methods("POST")
	api.HandleFunc("/duplicates", searchHandler.CheckDuplicates).Methods("POST")
	api.HandleFunc("/categorize", searchHandler.Categorize).Methods("POST")
	api.HandleFunc("/suggestions", searchHandler.Suggestions).Methods("POST")
	api.HandleFunc("/sentiment", searchHandler.Sentiment).Methods("POST")
	api.HandleFunc("/urgent", searchHandler.Urgent).Methods("GET")

	api.HandleFunc("/stats", apiHandler.GetStats).Methods("GET")

	// Uploaded item photos
	if info, err := os.Stat(s.config.Uploads.Dir); err == nil && info.IsDir() {
		s.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.config.Uploads.Dir))),
		).Methods("GET")
	}

	// Apply middleware
	s.router.Use(middleware.RequestLogging())
	if s.rateLimiter != nil {
		api.Use(middleware.RateLimit(s.rateLimiter))
	}
	if s.config.Auth.APIKey != "" {
		api.Use(middleware.Authentication(s.config.Auth.APIKey))
	}

	// CORS wraps the router so preflight requests never reach route matching
	s.handler = middleware.CORS(s.config.Server.AllowedOrigins)(s.router)
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.StartCleanup(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
