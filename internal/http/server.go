package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Services bundles everything the HTTP surface exposes.
type Services struct {
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Recurring    *services.RecurringService
	Processor    *services.RecurringProcessor
	Reconciler   *services.Reconciler
}

type Server struct {
	http.Server

	repo storage.Repository
	svc  Services

	rateLimiter *rateLimiter

	// Collapses concurrent sweep requests for the same owner into one run.
	sweepGroup singleflight.Group
}

func NewServer(addr string, repo storage.Repository, svc Services) *Server {
	mux := http.NewServeMux()

	httpLogger := log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           log.Middleware(httpLogger)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
		repo:        repo,
		svc:         svc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/accounts", s.guard(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.guard(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.guard(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.guard(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.guard(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/accounts/{id}/ledger", s.guard(s.handleAccountLedger))
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.guard(s.handleAccountTransactions))
	mux.HandleFunc("POST /api/accounts/{id}/reconcile", s.guard(s.handleReconcileAccount))

	mux.HandleFunc("POST /api/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.guard(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.guard(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.guard(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.guard(s.handleCreateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.guard(s.handleDeleteCategory))

	mux.HandleFunc("POST /api/budgets", s.guard(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.guard(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.guard(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.guard(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.guard(s.handleDeleteBudget))
	mux.HandleFunc("GET /api/budgets/{id}/progress", s.guard(s.handleBudgetProgress))
	mux.HandleFunc("GET /api/budgets/progress", s.guard(s.handleAllBudgetProgress))

	mux.HandleFunc("POST /api/goals", s.guard(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals", s.guard(s.handleListGoals))
	mux.HandleFunc("GET /api/goals/{id}", s.guard(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.guard(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.guard(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/goals/{id}/contributions", s.guard(s.handleContribute))
	mux.HandleFunc("GET /api/goals/{id}/contributions", s.guard(s.handleListContributions))

	mux.HandleFunc("POST /api/recurring", s.guard(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/recurring", s.guard(s.handleListRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.guard(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.guard(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.guard(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/recurring/sweep", s.guard(s.handleSweep))

	return s
}

// guard adds security headers, rate limiting on writes and a request ID
// around a handler. Completion logging lives in the outer log middleware.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Request-ID", generateRequestID())
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Shutdown stops the rate limiter's cleanup loop and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

// rateLimiter tracks per-client request counts in a sliding one-minute
// window.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string][]time.Time
	limit    int
	window   time.Duration
	stopChan chan struct{}
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:  make(map[string][]time.Time),
		limit:    60,
		window:   time.Minute,
		stopChan: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	recent := rl.clients[clientIP][:0]
	for _, t := range rl.clients[clientIP] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.clients[clientIP] = recent
		return false
	}

	rl.clients[clientIP] = append(recent, now)
	return true
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for ip, times := range rl.clients {
		var recent []time.Time
		for _, t := range times {
			if t.After(cutoff) {
				recent = append(recent, t)
			}
		}
		if len(recent) == 0 {
			delete(rl.clients, ip)
		} else {
			rl.clients[ip] = recent
		}
	}
}

func (rl *rateLimiter) stop() {
	close(rl.stopChan)
}
