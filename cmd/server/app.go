package main

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/logger"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := withRequestID(withRecover(a.routerCfg.Issuer.Middleware(a.mux)))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler

	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.ready)
	a.mux.HandleFunc("POST /auth/login", ah.Login)
	a.mux.HandleFunc("POST /auth/logout", ah.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require logged-in user)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("POST /me/password", a.requireAuth(http.HandlerFunc(ah.ChangePassword)))

	// ─────────────────────────────────────────────────────────────────────────
	// Protected resource routes (require auth + specific permissions)
	// ─────────────────────────────────────────────────────────────────────────
	ph := a.routerCfg.ProductHandler
	cah := a.routerCfg.CategoryHandler
	cuh := a.routerCfg.CustomerHandler
	ih := a.routerCfg.InvoiceHandler
	rh := a.routerCfg.ReportHandler

	// Products
	a.mux.Handle("GET /products",
		a.requireAuth(a.requirePermission("product", policy.ActionList)(http.HandlerFunc(ph.List))))
	a.mux.Handle("POST /products",
		a.requireAuth(a.requirePermission("product", policy.ActionCreate)(http.HandlerFunc(ph.Create))))
	a.mux.Handle("GET /products/low-stock",
		a.requireAuth(a.requirePermission("product", policy.ActionList)(http.HandlerFunc(ph.LowStock))))
	a.mux.Handle("GET /products/barcode/{barcode}",
		a.requireAuth(a.requirePermission("product", policy.ActionView)(http.HandlerFunc(ph.GetByBarcode))))
	a.mux.Handle("GET /products/{id}",
		a.requireAuth(a.requirePermission("product", policy.ActionView)(http.HandlerFunc(ph.Get))))
	a.mux.Handle("POST /products/{id}",
		a.requireAuth(a.requirePermission("product", policy.ActionUpdate)(http.HandlerFunc(ph.Update))))
	a.mux.Handle("POST /products/{id}/price",
		a.requireAuth(a.requirePermission("product", policy.ActionUpdate)(http.HandlerFunc(ph.UpdatePrice))))
	a.mux.Handle("POST /products/{id}/stock",
		a.requireAuth(a.requirePermission("product", policy.ActionUpdate)(http.HandlerFunc(ph.AdjustStock))))
	a.mux.Handle("POST /products/{id}/delete",
		a.requireAuth(a.requirePermission("product", policy.ActionDelete)(http.HandlerFunc(ph.Delete))))
	a.mux.Handle("GET /stock-movements",
		a.requireAuth(a.requirePermission("product", policy.ActionView)(http.HandlerFunc(ph.Movements))))

	// Categories
	a.mux.Handle("GET /categories",
		a.requireAuth(a.requirePermission("category", policy.ActionList)(http.HandlerFunc(cah.List))))
	a.mux.Handle("POST /categories",
		a.requireAuth(a.requirePermission("category", policy.ActionCreate)(http.HandlerFunc(cah.Create))))
	a.mux.Handle("POST /categories/{id}",
		a.requireAuth(a.requirePermission("category", policy.ActionUpdate)(http.HandlerFunc(cah.Update))))
	a.mux.Handle("POST /categories/{id}/delete",
		a.requireAuth(a.requirePermission("category", policy.ActionDelete)(http.HandlerFunc(cah.Delete))))

	// Customers
	a.mux.Handle("GET /customers",
		a.requireAuth(a.requirePermission("customer", policy.ActionList)(http.HandlerFunc(cuh.List))))
	a.mux.Handle("POST /customers",
		a.requireAuth(a.requirePermission("customer", policy.ActionCreate)(http.HandlerFunc(cuh.Create))))
	a.mux.Handle("GET /customers/{id}",
		a.requireAuth(a.requirePermission("customer", policy.ActionView)(http.HandlerFunc(cuh.Get))))
	a.mux.Handle("POST /customers/{id}",
		a.requireAuth(a.requirePermission("customer", policy.ActionUpdate)(http.HandlerFunc(cuh.Update))))
	a.mux.Handle("POST /customers/{id}/delete",
		a.requireAuth(a.requirePermission("customer", policy.ActionDelete)(http.HandlerFunc(cuh.Delete))))

	// Invoices
	a.mux.Handle("GET /invoices",
		a.requireAuth(a.requirePermission("invoice", policy.ActionList)(http.HandlerFunc(ih.List))))
	a.mux.Handle("POST /invoices",
		a.requireAuth(a.requirePermission("invoice", policy.ActionCreate)(http.HandlerFunc(ih.Create))))
	a.mux.Handle("GET /invoices/{id}",
		a.requireAuth(a.requirePermission("invoice", policy.ActionView)(http.HandlerFunc(ih.Get))))
	a.mux.Handle("POST /invoices/{id}/cancel",
		a.requireAuth(a.requirePermission("invoice", policy.ActionDelete)(http.HandlerFunc(ih.Cancel))))
	a.mux.Handle("POST /invoices/{id}/complete",
		a.requireAuth(a.requirePermission("invoice", policy.ActionUpdate)(http.HandlerFunc(ih.Complete))))

	// Reports
	a.mux.Handle("GET /reports/daily",
		a.requireAuth(a.requirePermission("report", policy.ActionView)(http.HandlerFunc(rh.Daily))))
	a.mux.Handle("GET /reports/monthly",
		a.requireAuth(a.requirePermission("report", policy.ActionView)(http.HandlerFunc(rh.Monthly))))
	a.mux.Handle("GET /reports/summary",
		a.requireAuth(a.requirePermission("report", policy.ActionView)(http.HandlerFunc(rh.Summary))))

	// ─────────────────────────────────────────────────────────────────────────
	// Admin routes
	// ─────────────────────────────────────────────────────────────────────────
	uh := a.routerCfg.UserHandler

	a.mux.Handle("GET /users", a.requireAdmin(http.HandlerFunc(uh.List)))
	a.mux.Handle("POST /users", a.requireAdmin(http.HandlerFunc(uh.Create)))
	a.mux.Handle("POST /users/{id}", a.requireAdmin(http.HandlerFunc(uh.Update)))
	a.mux.Handle("POST /users/{id}/delete", a.requireAdmin(http.HandlerFunc(uh.Delete)))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requireAdmin wraps a handler to require the *:* permission.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return a.requireAuth(a.routerCfg.Gate.RequireAdmin()(next))
}

// requirePermission wraps a handler to require specific resource permission.
func (a *App) requirePermission(resourceType string, action policy.Action) func(http.Handler) http.Handler {
	return a.routerCfg.Gate.RequirePermission(resourceType, action)
}

// userVerifier reports whether uid still exists. A failed lookup rejects
// the token and is logged.
func userVerifier(db *gorm.DB) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		var count int64
		if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count).Error; err != nil {
			logger.Error("verify user %d", err, uid)
			return false
		}
		return count > 0
	}
}

type requestIDKey struct{}

// withRequestID tags each request with an X-Request-ID, reusing the caller's when present.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRecover turns a handler panic into a 500 JSON response.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic serving %s %s [%s]: %v", nil, r.Method, r.URL.Path, requestID(r.Context()), rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Health
// ─────────────────────────────────────────────────────────────────────────────

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready reports 503 when the database does not answer.
func (a *App) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		logger.Error("readiness check failed", err)
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
