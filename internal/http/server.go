// Package http exposes the JSON API. Handlers translate requests into
// service calls and service errors into status codes; no domain logic
// lives here.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// TransactionAPI is the slice of TransactionService the handlers use.
type TransactionAPI interface {
	Create(ctx context.Context, ownerID string, in services.TransactionInput) (services.TransactionResult, error)
	Update(ctx context.Context, ownerID, id string, in services.TransactionInput) (services.TransactionResult, error)
	Delete(ctx context.Context, ownerID, id string) (string, error)
	Get(ctx context.Context, ownerID, id string) (core.Transaction, error)
	List(ctx context.Context, ownerID string, f core.Filter) ([]core.Transaction, error)
	Summary(ctx context.Context, ownerID string, f core.Filter) (core.Summary, error)
}

// CategoryAPI is the slice of CategoryService the handlers use.
type CategoryAPI interface {
	Create(ctx context.Context, ownerID, name string, typ core.TransactionType) (core.Category, error)
	Get(ctx context.Context, ownerID, id string) (core.Category, error)
	List(ctx context.Context, ownerID string, typ core.TransactionType) ([]core.Category, error)
	Update(ctx context.Context, ownerID, id, name string, typ core.TransactionType) (core.Category, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ReportAPI generates the downloadable report document.
type ReportAPI interface {
	Generate(ctx context.Context, ownerID, email string, start, end core.Date) ([]byte, error)
}

// UserStore covers registration and login lookups.
type UserStore interface {
	CreateUser(ctx context.Context, u storage.User) error
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
}

// NotificationStore lists the advice feed.
type NotificationStore interface {
	ListNotifications(ctx context.Context, ownerID string, limit int) ([]storage.Notification, error)
}

// TokenManager issues and verifies the bearer tokens.
type TokenManager interface {
	IssueToken(userID, email string) (string, error)
	VerifyToken(token string) (auth.Claims, error)
}

// Server wires routes, middleware and collaborators around http.Server.
type Server struct {
	http.Server

	transactions  TransactionAPI
	categories    CategoryAPI
	reports       ReportAPI
	users         UserStore
	notifications NotificationStore
	tokens        TokenManager

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Deps carries everything NewServer needs besides the address.
type Deps struct {
	Transactions  TransactionAPI
	Categories    CategoryAPI
	Reports       ReportAPI
	Users         UserStore
	Notifications NotificationStore
	Tokens        TokenManager
	RateLimit     ratelimit.Config
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Everything under /api except the auth endpoints requires a
// bearer token.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		transactions:  deps.Transactions,
		categories:    deps.Categories,
		reports:       deps.Reports,
		users:         deps.Users,
		notifications: deps.Notifications,
		tokens:        deps.Tokens,
		limiter:       ratelimit.NewLimiter(deps.RateLimit),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/transactions", s.authenticated(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions", s.authenticated(s.handleListTransactions))
	mux.Handle("GET /api/transactions/summary", s.authenticated(s.handleSummary))
	mux.Handle("GET /api/transactions/report", s.authenticated(s.handleReport))
	mux.Handle("GET /api/transactions/{id}", s.authenticated(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	mux.Handle("POST /api/categories", s.authenticated(s.handleCreateCategory))
	mux.Handle("GET /api/categories", s.authenticated(s.handleListCategories))
	mux.Handle("GET /api/categories/{id}", s.authenticated(s.handleGetCategory))
	mux.Handle("PUT /api/categories/{id}", s.authenticated(s.handleUpdateCategory))
	mux.Handle("DELETE /api/categories/{id}", s.authenticated(s.handleDeleteCategory))

	mux.Handle("GET /api/notifications", s.authenticated(s.handleListNotifications))

	tracer := trace.NewMiddleware()
	handler := tracer.Middleware(s.limiter.Middleware(trace.ClientIP)(securityHeaders(mux)))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
