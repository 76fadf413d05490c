package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/tandem/internal/auth"
	"github.com/dukerupert/tandem/internal/config"
	"github.com/dukerupert/tandem/internal/email"
	"github.com/dukerupert/tandem/internal/handler"
	"github.com/dukerupert/tandem/internal/metrics"
	"github.com/dukerupert/tandem/internal/middleware"
	"github.com/dukerupert/tandem/internal/push"
	"github.com/dukerupert/tandem/internal/reminder"
	"github.com/dukerupert/tandem/internal/store"
	ws "github.com/dukerupert/tandem/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	taskH          *handler.TaskHandler
	listH          *handler.ListHandler
	eventH         *handler.EventHandler
	friendH        *handler.FriendHandler
	notificationH  *handler.NotificationHandler
	pushH          *handler.PushHandler
	tokens         *auth.TokenIssuer
	userStore      *store.UserStore
	rateLimiter    *middleware.RateLimiter
	scheduler      *reminder.Scheduler
	registry       *prometheus.Registry
	allowedOrigins []string
	logger         *slog.Logger
}

// Option customizes a Server at construction.
type Option func(*options)

type options struct {
	emailOpts []email.Option
	clock     func() time.Time
}

// WithEmailOptions passes options through to the Postmark client.
func WithEmailOptions(opts ...email.Option) Option {
	return func(o *options) { o.emailOpts = append(o.emailOpts, opts...) }
}

// WithClock overrides the reminder engine's clock.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	friendStore := store.NewFriendStore(db)
	taskStore := store.NewTaskStore(db)
	listStore := store.NewListStore(db)
	eventStore := store.NewEventStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	// Push is optional; without VAPID keys the channel is skipped.
	var (
		pushSvc    *push.Service
		pushSender *push.Sender
		pusher     reminder.Pusher
	)
	if cfg.Push.Enabled() {
		pushSvc = push.NewService(push.Config{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:         cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		})
		pushSender = push.NewSender(pushSvc, pushStore, logger.With("component", "push"))
		pusher = pushSender
	}

	emailClient := email.NewClient(cfg.Email.PostmarkToken, cfg.Email.From, o.emailOpts...)

	var registry *prometheus.Registry
	var recorder reminder.Recorder
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(registry)
		metrics.RegisterConnectionGauge(registry, hub.ClientCount)
	}

	reminderCfg := reminder.Config{
		Location:    cfg.Location(),
		BaseURL:     cfg.Server.BaseURL,
		Concurrency: cfg.Dispatch.Concurrency,
		Clock:       o.clock,
	}
	reminderLogger := logger.With("component", "reminder")
	dispatcher := reminder.NewDispatcher(hub, emailClient, pusher, reminderCfg, reminderLogger)
	source := store.NewReminderSource(taskStore, listStore, eventStore)
	engine := reminder.NewEngine(source, dispatcher, recorder, reminderCfg, reminderLogger)
	scheduler := reminder.NewScheduler(engine, reminder.SchedulerConfig{
		Location: cfg.Location(),
		DailyAt:  cfg.Scheduler.DailyAt,
	}, reminderLogger)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	notifier := handler.NewNotifier(notificationStore, hub, logger.With("component", "notify"))

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, tokens, logger.With("component", "auth")),
		taskH:          handler.NewTaskHandler(taskStore, friendStore, notifier, hub, logger.With("component", "task")),
		listH:          handler.NewListHandler(listStore, friendStore, notifier, hub, logger.With("component", "list")),
		eventH:         handler.NewEventHandler(eventStore, friendStore, notifier, hub, logger.With("component", "event")),
		friendH:        handler.NewFriendHandler(friendStore, userStore, notifier, hub, logger.With("component", "friend")),
		notificationH:  handler.NewNotificationHandler(notificationStore),
		pushH:          handler.NewPushHandler(pushStore, pushSvc, pushSender, logger.With("component", "push_handler")),
		tokens:         tokens,
		userStore:      userStore,
		rateLimiter:    middleware.NewRateLimiter(cfg.Auth.LoginPerMinute, 10*time.Minute),
		scheduler:      scheduler,
		registry:       registry,
		allowedOrigins: cfg.Server.AllowedOrigins,
		logger:         logger,
	}
}

// Hub returns the real-time hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Scheduler returns the reminder scheduler. The caller starts and stops it.
func (s *Server) Scheduler() *reminder.Scheduler {
	return s.scheduler
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	if s.registry != nil {
		outerMux.Handle("GET /metrics", metrics.Handler(s.registry))
	}

	// Everything else requires a valid token.
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	h := middleware.Recover(s.logger.With("component", "http"))(outerMux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		status, code = "database unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":      status,
		"connections": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)
	mux.HandleFunc("PUT /api/me/password", s.authH.ChangePassword)

	// Task API routes
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)
	mux.HandleFunc("POST /api/tasks/{id}/share", s.taskH.Share)
	mux.HandleFunc("DELETE /api/tasks/{id}/share/{user_id}", s.taskH.Unshare)

	// Shared list API routes
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/items", s.listH.AddItem)
	mux.HandleFunc("PUT /api/lists/{id}/items/{item_id}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{item_id}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/lists/{id}/items/{item_id}/toggle", s.listH.ToggleItem)
	mux.HandleFunc("POST /api/lists/{id}/collaborators", s.listH.AddCollaborator)
	mux.HandleFunc("DELETE /api/lists/{id}/collaborators/{user_id}", s.listH.RemoveCollaborator)

	// Calendar event API routes
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Friend API routes
	mux.HandleFunc("GET /api/friends", s.friendH.List)
	mux.HandleFunc("POST /api/friends/requests", s.friendH.Request)
	mux.HandleFunc("POST /api/friends/requests/{id}/accept", s.friendH.Accept)
	mux.HandleFunc("DELETE /api/friends/{id}", s.friendH.Delete)

	// Notification API routes
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)
	mux.HandleFunc("POST /api/notifications/read-all", s.notificationH.MarkAllRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.notificationH.Delete)

	// Push notification API routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.allowedOrigins, s.logger.With("component", "websocket")))
}
