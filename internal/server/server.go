package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sorriso/simplehybridchat/internal/account"
	"github.com/sorriso/simplehybridchat/internal/authz"
	"github.com/sorriso/simplehybridchat/internal/chatengine"
	"github.com/sorriso/simplehybridchat/internal/config"
	"github.com/sorriso/simplehybridchat/internal/conversation"
	"github.com/sorriso/simplehybridchat/internal/filecatalog"
	"github.com/sorriso/simplehybridchat/internal/maintenance"
	"github.com/sorriso/simplehybridchat/internal/principal"
	"github.com/sorriso/simplehybridchat/internal/settings"
)

// Config holds HTTP-layer settings distinct from internal/config.Config
// (the ambient process configuration): listen port, CORS, and timeouts.
type Config struct {
	Port         int
	EnableCORS   bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sane defaults. WriteTimeout is zero: the chat
// stream is long-lived relative to an ordinary JSON request and must
// not be cut off mid-turn.
func DefaultConfig() Config {
	return Config{
		Port:         8080,
		EnableCORS:   true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
	}
}

// Server wires every domain repository/service to the HTTP layer.
type Server struct {
	config Config
	cfg    config.Config
	router *chi.Mux
	httpSrv *http.Server

	resolver    *principal.Resolver
	policy      authz.Policy
	maintenance *maintenance.Flag

	accounts *account.Repository

	conversations *conversation.ConversationRepo
	messages      *conversation.MessageRepo
	convGroups    *conversation.ConversationGroupRepo

	settings *settings.Repository

	files    *filecatalog.Service
	fileRepo *filecatalog.FileRepo

	engine *chatengine.Engine
}

// Deps bundles every collaborator New needs, so the constructor's
// signature stays stable as the domain grows.
type Deps struct {
	AppConfig   config.Config
	Resolver    *principal.Resolver
	Policy      authz.Policy
	Maintenance *maintenance.Flag

	Accounts *account.Repository

	Conversations *conversation.ConversationRepo
	Messages      *conversation.MessageRepo
	ConvGroups    *conversation.ConversationGroupRepo

	Settings *settings.Repository

	Files    *filecatalog.Service
	FileRepo *filecatalog.FileRepo

	Engine *chatengine.Engine
}

// New builds a Server and wires its routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		config:        cfg,
		cfg:           deps.AppConfig,
		router:        chi.NewRouter(),
		resolver:      deps.Resolver,
		policy:        deps.Policy,
		maintenance:   deps.Maintenance,
		accounts:      deps.Accounts,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		convGroups:    deps.ConvGroups,
		settings:      deps.Settings,
		files:         deps.Files,
		fileRepo:      deps.FileRepo,
		engine:        deps.Engine,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router exposes the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
