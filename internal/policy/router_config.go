package policy

import (
	"context"
	"time"

	"github.com/diewo77/go-pos/auth"
	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/events"
	"github.com/diewo77/go-pos/internal/handlers"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds the configured services, handlers and middleware of the application.
type RouterConfig struct {
	// Gate provides authorization checks and middleware
	Gate   *Gate
	Issuer *auth.Issuer
	Bus    *events.Bus

	// Handlers
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CategoryHandler *handlers.CategoryHandler
	CustomerHandler *handlers.CustomerHandler
	InvoiceHandler  *handlers.InvoiceHandler
	ReportHandler   *handlers.ReportHandler
	UserHandler     *handlers.UserHandler

	// Services
	Products  *services.ProductService
	Invoices  *services.InvoiceService
	Reports   *services.ReportService
	Users     *services.UserService
	Customers *services.CustomerService
}

// NewRouterConfig wires services, handlers and the authorization gate over db.
// Query string dates are read in loc.
//
//	cfg := policy.NewRouterConfig(db, appCfg, time.Local)
//	mux.Handle("GET /products", cfg.Gate.RequirePermission("product", policy.ActionList)(http.HandlerFunc(cfg.ProductHandler.List)))
func NewRouterConfig(db *gorm.DB, cfg *config.Config, loc *time.Location) *RouterConfig {
	bus := events.NewBus()
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	threshold := cfg.App.LowStockThreshold

	users := services.NewUserService(db)
	products := services.NewProductService(db, bus, threshold)
	invoices := services.NewInvoiceService(db, bus)
	reports := services.NewReportService(db, threshold)
	categories := services.NewCategoryService(db)
	customers := services.NewCustomerService(db)

	// Roles are re-read from the database so demotions apply before the token expires.
	gate := NewGate(DefaultPermissions(), func(ctx context.Context, uid uint) (models.UserRole, error) {
		u, err := users.GetUser(ctx, uid)
		if err != nil {
			return "", err
		}
		if u == nil {
			return "", ErrUnauthenticated
		}
		return u.Role, nil
	}, time.Minute)

	return &RouterConfig{
		Gate:            gate,
		Issuer:          issuer,
		Bus:             bus,
		AuthHandler:     handlers.NewAuthHandler(users, issuer),
		ProductHandler:  handlers.NewProductHandler(products),
		CategoryHandler: handlers.NewCategoryHandler(categories),
		CustomerHandler: handlers.NewCustomerHandler(customers),
		InvoiceHandler:  handlers.NewInvoiceHandler(invoices, loc),
		ReportHandler:   handlers.NewReportHandler(reports, loc),
		UserHandler:     handlers.NewUserHandler(users, gate.Invalidate),
		Products:        products,
		Invoices:        invoices,
		Reports:         reports,
		Users:           users,
		Customers:       customers,
	}
}
