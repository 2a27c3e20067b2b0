package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/nayher/commerce-backend/config"
	cartdelivery "github.com/nayher/commerce-backend/internal/cart/delivery/http"
	cartrepo "github.com/nayher/commerce-backend/internal/cart/repository"
	cartcommand "github.com/nayher/commerce-backend/internal/cart/usecase/command"
	cartquery "github.com/nayher/commerce-backend/internal/cart/usecase/query"
	catalogdelivery "github.com/nayher/commerce-backend/internal/catalog/delivery/http"
	catalogrepo "github.com/nayher/commerce-backend/internal/catalog/repository"
	catalogcommand "github.com/nayher/commerce-backend/internal/catalog/usecase/command"
	catalogquery "github.com/nayher/commerce-backend/internal/catalog/usecase/query"
	checkoutdelivery "github.com/nayher/commerce-backend/internal/checkout/delivery/http"
	"github.com/nayher/commerce-backend/internal/checkout/gateway"
	checkoutcommand "github.com/nayher/commerce-backend/internal/checkout/usecase/command"
	"github.com/nayher/commerce-backend/internal/middleware"
	orderdelivery "github.com/nayher/commerce-backend/internal/order/delivery/http"
	orderrepo "github.com/nayher/commerce-backend/internal/order/repository"
	ordercommand "github.com/nayher/commerce-backend/internal/order/usecase/command"
	orderquery "github.com/nayher/commerce-backend/internal/order/usecase/query"
	reviewdelivery "github.com/nayher/commerce-backend/internal/review/delivery/http"
	reviewrepo "github.com/nayher/commerce-backend/internal/review/repository"
	reviewcommand "github.com/nayher/commerce-backend/internal/review/usecase/command"
	reviewquery "github.com/nayher/commerce-backend/internal/review/usecase/query"
	"github.com/nayher/commerce-backend/internal/upload"
	userrepo "github.com/nayher/commerce-backend/internal/user/repository"
	"github.com/nayher/commerce-backend/kafka"
	"github.com/nayher/commerce-backend/pkg/auth"
	"github.com/nayher/commerce-backend/pkg/database"
	"github.com/nayher/commerce-backend/pkg/logger"
	"github.com/nayher/commerce-backend/pkg/storage"
	"github.com/nayher/commerce-backend/pkg/tracing"
)

func main() {
	cfg := config.Load()

	serviceName := "commerce-backend"
	logger.Init(serviceName, cfg.Environment == "development")
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting commerce backend")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Connect to MongoDB
	client, db, err := database.NewMongoConnection(ctx, database.Config{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to disconnect from MongoDB")
		}
	}()

	// Repositories
	productRepo := catalogrepo.NewMongoProductRepository(db)
	categoryRepo := catalogrepo.NewMongoCategoryRepository(db)
	userRepo := userrepo.NewMongoUserRepository(db)
	cartRepo := cartrepo.NewMongoCartRepository(db)
	orderRepoMongo := orderrepo.NewMongoOrderRepository(db)
	reviewRepo := reviewrepo.NewMongoReviewRepository(db)

	for name, ensure := range map[string]func(context.Context) error{
		"products":   productRepo.EnsureIndexes,
		"categories": categoryRepo.EnsureIndexes,
		"users":      userRepo.EnsureIndexes,
		"carts":      cartRepo.EnsureIndexes,
		"orders":     orderRepoMongo.EnsureIndexes,
		"reviews":    reviewRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Str("collection", name).Msg("Failed to create indexes")
		}
	}
	logger.Logger.Info().Msg("Database initialized successfully")

	products := catalogrepo.NewTracingProductRepository(productRepo)
	orders := orderrepo.NewTracingOrderRepository(orderRepoMongo)

	// Optional Redis response cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Logger.Warn().Err(err).Msg("Redis unreachable, response cache disabled")
			redisClient = nil
		}
	}
	cache := middleware.NewCache(redisClient, cfg.CacheTTL)

	// Optional Kafka publisher
	var publisher *kafka.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka unreachable, events disabled")
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// Media storage
	store, err := storage.OpenBlobStore(ctx, cfg.BucketURL, cfg.MediaBaseURL)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to open media bucket")
	}
	defer store.Close()

	// Auth middleware
	verifier := auth.NewVerifier(cfg.JWTSecret)
	authOnly := middleware.Auth(verifier, userRepo)
	adminOnly := middleware.RequireAdmin(verifier, userRepo)
	optionalAuth := middleware.OptionalAuth(verifier)

	// Catalog
	imageSyncer := catalogcommand.NewImageSyncer(products, categoryRepo)
	catalogHandler := catalogdelivery.NewCatalogHandler(
		catalogcommand.NewCreateProductHandler(products, categoryRepo, imageSyncer),
		catalogcommand.NewUpdateProductHandler(products, categoryRepo, imageSyncer),
		catalogcommand.NewDeleteProductHandler(products, imageSyncer),
		catalogcommand.NewCreateCategoryHandler(categoryRepo),
		catalogcommand.NewUpdateCategoryHandler(categoryRepo),
		catalogcommand.NewDeleteCategoryHandler(categoryRepo, products),
		catalogquery.NewGetProductHandler(products, categoryRepo),
		catalogquery.NewListProductsHandler(products, categoryRepo),
		catalogquery.NewGetCategoryHandler(categoryRepo, products),
		catalogquery.NewListCategoriesHandler(categoryRepo, products),
		adminOnly,
		cache,
	)

	// Cart
	cartHandler := cartdelivery.NewCartHandler(
		cartcommand.NewAddItemHandler(cartRepo, products),
		cartcommand.NewUpdateItemHandler(cartRepo, products),
		cartcommand.NewRemoveItemHandler(cartRepo),
		cartcommand.NewClearCartHandler(cartRepo),
		cartquery.NewGetCartHandler(cartRepo, products),
		authOnly,
	)

	// Orders
	createOrder := ordercommand.NewCreateOrderHandler(orders, products, cfg.OrderNumberPrefix)
	orderHandler := orderdelivery.NewOrderHandler(
		createOrder,
		ordercommand.NewUpdateStatusHandler(orders),
		ordercommand.NewCancelOrderHandler(orders),
		orderquery.NewGetOrderHandler(orders),
		orderquery.NewListOrdersHandler(orders),
		authOnly,
		adminOnly,
	)

	// Checkout
	stripeGateway := gateway.NewStripeGateway(cfg.StripeSecretKey)
	totals := checkoutcommand.Totals{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFlatFee:       cfg.ShippingFlatFee,
		TaxRate:               cfg.TaxRate,
	}
	checkoutHandler := checkoutdelivery.NewCheckoutHandler(
		checkoutcommand.NewCreateSessionHandler(cartRepo, products, stripeGateway, totals, cfg.FrontendURL),
		checkoutcommand.NewVerifyPaymentHandler(stripeGateway, orders, userRepo, cartRepo, createOrder, totals, publisher),
		optionalAuth,
	)

	// Reviews
	ratingSyncer := reviewcommand.NewRatingSyncer(reviewRepo, products)
	reviewHandler := reviewdelivery.NewReviewHandler(
		reviewcommand.NewCreateReviewHandler(reviewRepo, products, orders, ratingSyncer),
		reviewcommand.NewUpdateReviewHandler(reviewRepo, ratingSyncer),
		reviewcommand.NewDeleteReviewHandler(reviewRepo, ratingSyncer),
		reviewcommand.NewApproveReviewHandler(reviewRepo, ratingSyncer),
		reviewcommand.NewVoteHelpfulHandler(reviewRepo),
		reviewquery.NewListProductReviewsHandler(reviewRepo),
		reviewquery.NewListAllReviewsHandler(reviewRepo),
		userRepo,
		authOnly,
		adminOnly,
		optionalAuth,
	)

	uploadHandler := upload.NewHandler(store, adminOnly)

	// Router
	router := mux.NewRouter()
	reviewHandler.RegisterRoutes(router)
	catalogHandler.RegisterRoutes(router)
	cartHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)
	checkoutHandler.RegisterRoutes(router)
	uploadHandler.RegisterRoutes(router)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := client.Ping(r.Context(), nil); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
