package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/CATrainer/revu-sub000/internal/approvals"
	"github.com/CATrainer/revu-sub000/internal/db"
	"github.com/CATrainer/revu-sub000/internal/engine"
	"github.com/CATrainer/revu-sub000/internal/events"
	"github.com/CATrainer/revu-sub000/internal/executions"
	"github.com/CATrainer/revu-sub000/internal/interactions"
	"github.com/CATrainer/revu-sub000/internal/llm"
	"github.com/CATrainer/revu-sub000/internal/rules"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the interaction management API server. It owns the feature
// stores, the rule engine, and the websocket event hub, and wires their
// routes onto one chi router.
type Server struct {
	cfg        Config
	db         *db.DB
	evaluator  *engine.Evaluator
	hub        *events.Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all feature routes registered.
func New(cfg Config, database *db.DB, provider llm.Provider, model string, engineCfg EngineConfig) *Server {
	interactionStore := interactions.NewStore(database)
	ruleStore := rules.NewStore(database)
	executionStore := executions.NewStore(database)
	approvalStore := approvals.NewStore(database)

	hub := events.NewHub()
	executor := engine.NewExecutor(interactionStore, approvalStore, provider, model)
	judge := engine.NewJudge(provider, model, engineCfg.JudgeCacheTTL, engineCfg.CacheMaxEntries)
	evaluator := engine.NewEvaluator(ruleStore, interactionStore, executionStore, executor, judge, hub,
		engineCfg.RuleCacheTTL, engineCfg.CacheMaxEntries)

	s := &Server{
		cfg:       cfg,
		db:        database,
		evaluator: evaluator,
		hub:       hub,
	}

	r := s.buildRouter()
	interactions.RegisterRoutes(r, interactionStore)
	rules.RegisterRoutes(r, ruleStore)
	executions.RegisterRoutes(r, executionStore)
	approvals.RegisterRoutes(r, approvalStore, interactionStore)
	engine.RegisterRoutes(r, evaluator, ruleStore)
	hub.RegisterRoutes(r)

	s.router = r
	return s
}

// EngineConfig carries the engine tuning knobs from the config layer.
type EngineConfig struct {
	RuleCacheTTL    time.Duration
	JudgeCacheTTL   time.Duration
	CacheMaxEntries int
}

// buildRouter creates the chi router with the shared middleware stack.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Evaluator returns the rule engine.
func (s *Server) Evaluator() *engine.Evaluator { return s.evaluator }

// Hub returns the websocket event hub.
func (s *Server) Hub() *events.Hub { return s.hub }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("revu server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
