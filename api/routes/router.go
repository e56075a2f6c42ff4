package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gearvault/gearvault-backend/api/controllers"
	"github.com/gearvault/gearvault-backend/api/middleware"
	adminsvc "github.com/gearvault/gearvault-backend/internal/admin"
	assistantsvc "github.com/gearvault/gearvault-backend/internal/assistant"
	authsvc "github.com/gearvault/gearvault-backend/internal/auth"
	cartsvc "github.com/gearvault/gearvault-backend/internal/cart"
	catalogsvc "github.com/gearvault/gearvault-backend/internal/catalog"
	checkoutsvc "github.com/gearvault/gearvault-backend/internal/checkout"
	notificationssvc "github.com/gearvault/gearvault-backend/internal/notifications"
	orderssvc "github.com/gearvault/gearvault-backend/internal/orders"
	paymentssvc "github.com/gearvault/gearvault-backend/internal/payments"
	"github.com/gearvault/gearvault-backend/pkg/config"
	"github.com/gearvault/gearvault-backend/pkg/db"
	"github.com/gearvault/gearvault-backend/pkg/enums"
	"github.com/gearvault/gearvault-backend/pkg/logger"
	"github.com/gearvault/gearvault-backend/pkg/metrics"
	"github.com/gearvault/gearvault-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	redisClient *redis.Client,
	httpMetrics *metrics.HTTPMetrics,
	authService authsvc.Service,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService orderssvc.Service,
	paymentsService paymentssvc.Service,
	assistantService assistantsvc.Service,
	adminService adminsvc.Service,
	notificationsService notificationssvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, redisClient, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.Register(authService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
	})

	// Public catalog reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(catalogService, logg))
		r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
	})
	r.Get("/api/v1/categories", controllers.ListCategories(catalogService, logg))

	// Authenticated customer surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/me", controllers.Me(authService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Put("/items/{productId}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
			r.Post("/{orderId}/payment", controllers.CreatePaymentOrder(paymentsService, logg))
		})
		r.Post("/payments/confirm", controllers.ConfirmPayment(paymentsService, logg))

		r.Route("/assistant/chats", func(r chi.Router) {
			r.Post("/initialize", controllers.InitializeChat(assistantService, logg))
			r.Post("/", controllers.InitializeChat(assistantService, logg))
			r.Get("/", controllers.ListChats(assistantService, logg))
			r.Get("/{chatId}", controllers.GetChat(assistantService, logg))
			r.Delete("/{chatId}", controllers.DeleteChat(assistantService, logg))
			r.Post("/{chatId}/messages", controllers.SendChatMessage(assistantService, logg))
		})
	})

	// Admin surface.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/dashboard", controllers.AdminDashboard(adminService, logg))
		r.Get("/users", controllers.AdminListUsers(adminService, logg))
		r.Get("/orders", controllers.AdminListOrders(adminService, logg))
		r.Post("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(ordersService, logg))

		r.Post("/products", controllers.CreateProduct(catalogService, logg))
		r.Put("/products/{productId}", controllers.UpdateProduct(catalogService, logg))
		r.Delete("/products/{productId}", controllers.DeleteProduct(catalogService, logg))
		r.Post("/categories", controllers.CreateCategory(catalogService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
