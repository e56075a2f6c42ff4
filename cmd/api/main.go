package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gearvault/gearvault-backend/api/routes"
	"github.com/gearvault/gearvault-backend/internal/admin"
	"github.com/gearvault/gearvault-backend/internal/assistant"
	"github.com/gearvault/gearvault-backend/internal/auth"
	"github.com/gearvault/gearvault-backend/internal/cart"
	"github.com/gearvault/gearvault-backend/internal/catalog"
	"github.com/gearvault/gearvault-backend/internal/checkout"
	"github.com/gearvault/gearvault-backend/internal/notifications"
	"github.com/gearvault/gearvault-backend/internal/orders"
	"github.com/gearvault/gearvault-backend/internal/payments"
	"github.com/gearvault/gearvault-backend/pkg/config"
	"github.com/gearvault/gearvault-backend/pkg/db"
	"github.com/gearvault/gearvault-backend/pkg/gateway"
	"github.com/gearvault/gearvault-backend/pkg/llm"
	"github.com/gearvault/gearvault-backend/pkg/logger"
	"github.com/gearvault/gearvault-backend/pkg/metrics"
	"github.com/gearvault/gearvault-backend/pkg/migrate"
	"github.com/gearvault/gearvault-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.BaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	authRepo := auth.NewRepository(conn)
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	notificationsRepo := notifications.NewRepository(conn)
	assistantRepo := assistant.NewRepository(conn)

	authService, err := auth.NewService(authRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(dbClient, cartRepo, ordersRepo, notificationsService, logg, cfg.Checkout.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(ordersRepo, gatewayClient, cfg.Gateway.Currency, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}
	adminService, err := admin.NewService(authRepo, catalogRepo, ordersRepo, ordersService, cfg.Checkout.LowStockThreshold)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	assistantEngine, err := buildAssistantEngine(cfg.Assistant, catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create assistant engine", err)
		os.Exit(1)
	}
	assistantService, err := assistant.NewService(assistantRepo, assistantEngine)
	if err != nil {
		logg.Error(context.Background(), "failed to create assistant service", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			httpMetrics,
			authService,
			catalogService,
			cartService,
			checkoutService,
			ordersService,
			paymentsService,
			assistantService,
			adminService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

// buildAssistantEngine picks the hosted-model engine when configured and
// keyed, with the rule engine as both the default and the runtime fallback.
func buildAssistantEngine(cfg config.AssistantConfig, catalogRepo *catalog.Repository, logg *logger.Logger) (assistant.Engine, error) {
	rules, err := assistant.NewRuleEngine(catalogRepo)
	if err != nil {
		return nil, err
	}
	if !cfg.UseModel() {
		return rules, nil
	}

	client, err := llm.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, err
	}
	return assistant.NewModelEngine(client, catalogRepo, rules, logg)
}
