// main.go
package main

import (
	"context"
	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/routes"
	"go-storefront/utils"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	utils.InitLogger(cfg.Environment)

	// Set the JWT secret keys
	utils.AccessTokenKey = []byte(cfg.AccessTokenSecret)
	utils.RefreshTokenKey = []byte(cfg.RefreshTokenSecret)

	// Connect to MongoDB
	client, err := utils.ConnectDB(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.TODO()); err != nil {
			log.Error().Err(err).Msg("error disconnecting from MongoDB")
		}
	}()
	if err := utils.EnsureIndexes(context.Background(), client.Database(cfg.MongoDatabase)); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// Connect to Redis
	rdb, err := utils.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// External services
	gateway := utils.NewStripeService(cfg.StripeSecretKey, cfg.ClientURL)

	var images *utils.ImageService
	if cfg.CloudinaryURL != "" {
		images, err = utils.NewImageService(cfg.CloudinaryURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure image service")
		}
	}

	var emailService *utils.EmailService
	if cfg.PostmarkAPIToken != "" {
		emailService = utils.NewEmailService(cfg.PostmarkAPIToken, cfg.EmailSender)
	}

	// Initialize controllers
	authController := controllers.NewAuthController(client, rdb, cfg)
	productController := controllers.NewProductController(client, cfg.MongoDatabase, rdb, images)
	cartController := controllers.NewCartController(client, cfg.MongoDatabase)
	couponController := controllers.NewCouponController(client, cfg.MongoDatabase)
	paymentController := controllers.NewPaymentController(client, gateway, emailService, cfg)
	analyticsController := controllers.NewAnalyticsController(client, cfg.MongoDatabase)

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)
	routes.RegisterRoutes(router, authController, productController, cartController, couponController, paymentController, analyticsController)

	// Start the server
	log.Info().Str("port", cfg.Port).Msg("server is running")
	log.Fatal().Err(http.ListenAndServe(":"+cfg.Port, router)).Msg("server stopped")
}
