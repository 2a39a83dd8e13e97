package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/config"
	"github.com/myflix-app/apiserver/internal/db"
	"github.com/myflix-app/apiserver/internal/handlers"
	"github.com/myflix-app/apiserver/internal/logging"
	"github.com/myflix-app/apiserver/internal/mq"
	"github.com/myflix-app/apiserver/internal/services"
	"github.com/myflix-app/apiserver/internal/storage"
	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     http.Handler
	docs       *store.Store
	mq         *mq.MQ
	assets     *storage.Storage
	log        *logrus.Logger
}

// Deps are the collaborators the router is built from. Publisher and Assets
// are optional.
type Deps struct {
	Store          *store.Store
	Publisher      services.Publisher
	Assets         handlers.AssetStore
	Log            logrus.FieldLogger
	JWTSecret      string
	TokenTTL       time.Duration
	ActivityTopic  string
	AllowedOrigins []string
}

// New connects the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	docs, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, fmt.Errorf("open mq: %w", err)
	}

	assets, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = docs.Close(ctx)
		if broker != nil {
			_ = broker.Close()
		}
		return nil, fmt.Errorf("open storage: %w", err)
	}

	deps := Deps{
		Store:          docs,
		Log:            log,
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.Auth.TokenTTL,
		ActivityTopic:  cfg.ActivityChannel,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	// Interfaces are only set for non-nil values so handlers can test for nil.
	if broker != nil {
		deps.Publisher = broker
	}
	if assets != nil {
		deps.Assets = assets
	}
	router := NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"db_driver": cfg.DBDriver,
		"mq":        cfg.MQBackend,
		"assets":    cfg.AssetsBackend,
	}).Info("server configured")

	return &Server{
		httpServer: httpServer,
		router:     router,
		docs:       docs,
		mq:         broker,
		assets:     assets,
		log:        log,
	}, nil
}

// OpenStore connects the document store selected by cfg.DBDriver.
func OpenStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return store.New(store.NewMongoBackend(client, database)), nil
	case config.DriverPostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return store.New(store.NewPostgresBackend(conn)), nil
	case config.DriverMemory:
		return store.New(store.NewMemoryBackend(UniqueFields())), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

// UniqueFields lists the fields the in-memory backend enforces uniqueness on.
// The other backends get the same constraints from their migrations.
func UniqueFields() map[string][]string {
	return map[string][]string{
		types.UsersCollection:  {"email", "username"},
		types.MoviesCollection: {"name"},
		types.ActorsCollection: {"name"},
	}
}

// NewRouter builds the HTTP API on top of deps.
func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var activity *services.Activity
	if deps.Publisher != nil {
		activity = services.NewActivity(deps.Publisher, deps.ActivityTopic, log)
	}

	userService := services.NewUserService(deps.Store, activity)
	listService := services.NewListService(deps.Store, activity)
	catalogService := services.NewCatalogService(deps.Store)

	authMiddleware := handlers.RequireAuth(deps.JWTSecret)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger(log),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
	)

	router.Get("/", handlers.Welcome)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, handlers.NewAuthHandler(userService, deps.JWTSecret, deps.TokenTTL, log))

	router.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.MovieRouter(r, handlers.NewMovieHandler(catalogService, log))
		r.Route("/actors", func(r chi.Router) {
			handlers.ActorRouter(r, handlers.NewActorHandler(catalogService, log))
		})
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, handlers.NewUserHandler(userService, listService, log), authMiddleware)
	})

	if deps.Assets != nil {
		router.Route("/assets", func(r chi.Router) {
			handlers.AssetRouter(r, handlers.NewAssetHandler(deps.Assets, log))
		})
	}

	return router
}

// Handler exposes the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if cerr := s.mq.Close(); cerr != nil {
			s.log.WithError(cerr).Warn("close mq")
		}
	}
	if s.assets != nil {
		if cerr := s.assets.Close(); cerr != nil {
			s.log.WithError(cerr).Warn("close storage")
		}
	}
	if cerr := s.docs.Close(ctx); cerr != nil {
		s.log.WithError(cerr).Warn("close store")
	}
	return err
}
