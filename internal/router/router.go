package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tableside/api/internal/catalog"
	"github.com/tableside/api/internal/config"
	"github.com/tableside/api/internal/database"
	"github.com/tableside/api/internal/gateway"
	"github.com/tableside/api/internal/handler"
	mw "github.com/tableside/api/internal/middleware"
	"github.com/tableside/api/internal/notify"
	"github.com/tableside/api/internal/service"
	"github.com/tableside/api/internal/ws"
)

// Services bundles the domain services the HTTP layer calls into.
type Services struct {
	Orders    *service.OrderService
	Sessions  *service.SessionService
	Requests  *service.ServiceRequestService
	Callbacks *service.PaymentCallbackProcessor
	Delivery  *service.DeliveryService
	Status    *service.StatusService
}

// NewServices wires every service over one pool and one shared ledger.
func NewServices(cfg *config.Config, pool *pgxpool.Pool, menus catalog.Provider, gw gateway.Gateway, notifier notify.Notifier) Services {
	ledger := service.NewLedger(cfg.RegionCurrencies, cfg.DefaultCurrency)
	newStore := service.QueriesStore
	return Services{
		Orders:    service.NewOrderService(pool, newStore, ledger, menus, gw, notifier, cfg.ReservationMatchWindow),
		Sessions:  service.NewSessionService(pool, newStore, ledger, gw, notifier),
		Requests:  service.NewServiceRequestService(pool, newStore, ledger, notifier),
		Callbacks: service.NewPaymentCallbackProcessor(pool, newStore, ledger, notifier),
		Delivery:  service.NewDeliveryService(pool, newStore, ledger, menus, gw),
		Status:    service.NewStatusService(pool, newStore),
	}
}

// New creates a Chi router with all application routes wired up.
// Staff routes are JWT authenticated and scoped to the token's restaurant;
// public routes are rate limited per client IP.
func New(cfg *config.Config, queries *database.Queries, svc Services, events handler.EventParser, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	webhookHandler := handler.NewWebhookHandler(events, svc.Callbacks)
	webhookHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	orderHandler := handler.NewOrderHandler(svc.Orders)
	tableHandler := handler.NewTableHandler(svc.Status, svc.Sessions)
	requestHandler := handler.NewServiceRequestHandler(svc.Requests)
	deliveryHandler := handler.NewDeliveryHandler(svc.Delivery)

	// Staff routes
	r.Route("/restaurants/{rid}", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRestaurant)

		tableHandler.RegisterRoutes(r)
		requestHandler.RegisterRoutes(r)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	// Guest routes
	limiter := mw.NewRateLimiter(cfg.PublicRateLimit, cfg.PublicRateBurst, 10*time.Minute)
	r.Route("/public/restaurants/{rid}", func(r chi.Router) {
		r.Use(limiter.Handler)

		tableHandler.RegisterPublicRoutes(r)
		orderHandler.RegisterPublicRoutes(r)
		requestHandler.RegisterPublicRoutes(r)
		deliveryHandler.RegisterPublicRoutes(r)
	})

	return r
}
