package server

import (
	"fmt"
	"net/http"
	"time"

	"daykart/internal/config"
	"daykart/internal/database"
	custommiddleware "daykart/internal/middleware"
	"daykart/internal/notify"
	"daykart/internal/repository"
	"daykart/internal/service"
	"daykart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, db.Health())
	})

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db.DB())
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	wishlistRepo := repository.NewWishlistRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())
	referralRepo := repository.NewReferralRepository(db.DB())

	// Cart change feed over redis pub/sub
	cartFeed := notify.NewCartFeed(redisClient, logger)

	// Initialize services
	authService := service.NewAuthService(profileRepo, refreshTokenRepo, cfg.JWT.Secret)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo, cartFeed, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	referralService := service.NewReferralService(referralRepo, profileRepo, service.ReferralConfig{
		RewardAmount:      cfg.Referral.RewardAmount,
		QualifyingTotal:   cfg.Referral.QualifyingTotal,
		MinimumRedemption: cfg.Referral.MinimumRedemption,
	}, logger)
	paymentService := service.NewPaymentService(orderRepo, cartRepo, referralService, redisClient, service.PaymentConfig{
		PayeeAddress:      cfg.Payment.PayeeAddress,
		PayeeName:         cfg.Payment.PayeeName,
		MerchantCode:      cfg.Payment.MerchantCode,
		Window:            cfg.Payment.Window(),
		SimulationEnabled: cfg.Payment.SimulationEnabled,
	}, logger)
	orderService := service.NewOrderService(orderRepo)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	cartHandler := transport.NewCartHandler(cartService, cartFeed, logger)
	wishlistHandler := transport.NewWishlistHandler(wishlistService, logger)
	paymentHandler := transport.NewPaymentHandler(paymentService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	referralHandler := transport.NewReferralHandler(referralService, logger)

	// Create shared middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	cartHandler.RegisterRoutes(router, authMiddleware)
	wishlistHandler.RegisterRoutes(router, authMiddleware)
	paymentHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	referralHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
