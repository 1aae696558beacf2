package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/notable-app/apiserver/config"
	"github.com/notable-app/apiserver/internal/db"
	"github.com/notable-app/apiserver/internal/handlers"
	"github.com/notable-app/apiserver/internal/mail"
	"github.com/notable-app/apiserver/internal/mq"
	"github.com/notable-app/apiserver/internal/notify"
	"github.com/notable-app/apiserver/internal/services"
	"github.com/notable-app/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	var queue *mq.MQ
	if backend != nil {
		queue = mq.New(backend)
	}

	mailer := mail.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	notifier := notify.NewNotifier(mailer, queue, cfg.NotificationQueue, nil)

	userRepo := store.NewUserRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)
	tagRepo := store.NewTagRepository(dbConn)

	userService := services.NewUserService(userRepo, notifier)
	noteService := services.NewNoteService(noteRepo, tagRepo)
	tagService := services.NewTagService(tagRepo, noteRepo)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	router.Use(handlers.OptionalAuth(jwtSecret, userService))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, noteService, tagService, jwtSecret)
	})
	router.Route("/notes", func(r chi.Router) {
		handlers.NoteRouter(r, noteService)
	})
	router.Route("/tags", func(r chi.Router) {
		handlers.TagRouter(r, tagService)
	})

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

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
