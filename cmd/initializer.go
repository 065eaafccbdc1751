package main

import (
	"database/sql"
	"log"
	"log/slog"
	"os"

	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"

	"controlhub/internal/config"
	"controlhub/internal/handlers"
	"controlhub/internal/models"
	"controlhub/internal/repositories"
	"controlhub/internal/services"
	"controlhub/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	signingKey string

	userRepo     *repositories.UserRepository
	purchaseRepo *repositories.PurchaseRepository

	userHandler         *handlers.UserHandler
	documentHandler     *handlers.DocumentHandler
	billingHandler      *handlers.BillingHandler
	notificationHandler *handlers.NotificationHandler
	dashboardHandler    *handlers.DashboardHandler

	wsManager *WebSocketManager
	db        *sql.DB
}

func initializeApp(cfg config.Config, db *sql.DB, redisClient *redis.Client, fcmClient *messaging.Client, errorLog, infoLog *log.Logger) (*application, error) {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	documentRepo := repositories.DocumentRepository{DB: db}
	purchaseRepo := repositories.PurchaseRepository{DB: db}
	eventRepo := repositories.NewWebhookEventRepository(db)
	receiptRepo := repositories.NewPendingReceiptRepository(db)
	notificationRepo := repositories.NotificationRepository{DB: db}
	dashboardRepo := repositories.DashboardRepository{DB: db}

	storage := &utils.S3Storage{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
	}

	// Services
	emailService := &services.EmailService{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}
	fcmService := &services.FCMService{Client: fcmClient}

	tokenManager, err := utils.NewManager(cfg.JWT.SigningKey)
	if err != nil {
		return nil, err
	}
	userService := &services.UserService{
		UserRepo:   &userRepo,
		Redis:      redisClient,
		Email:      emailService,
		Tokens:     tokenManager,
		SigningKey: cfg.JWT.SigningKey,
		BaseURL:    cfg.Server.PublicURL,
	}

	stripeService, err := services.NewStripeService(services.StripeConfig{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Logger:        slog.New(slog.NewTextHandler(os.Stdout, nil)),
	})
	if err != nil {
		return nil, err
	}

	billingService := &services.BillingService{
		PurchaseRepo: &purchaseRepo,
		UserRepo:     &userRepo,
		EventRepo:    eventRepo,
		ReceiptRepo:  receiptRepo,
		Catalog:      config.NewCatalog(cfg.Plans),
		Logger:       slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}

	documentService := &services.DocumentService{
		DocumentRepo:     &documentRepo,
		UserRepo:         &userRepo,
		NotificationRepo: &notificationRepo,
		Storage:          storage,
		FCM:              fcmService,
	}
	notificationService := &services.NotificationService{NotificationRepo: &notificationRepo}
	dashboardService := &services.DashboardService{DashboardRepo: &dashboardRepo}

	app := &application{
		errorLog:     errorLog,
		infoLog:      infoLog,
		signingKey:   cfg.JWT.SigningKey,
		userRepo:     &userRepo,
		purchaseRepo: &purchaseRepo,
		userHandler:  &handlers.UserHandler{Service: userService},
		documentHandler: &handlers.DocumentHandler{
			Service: documentService,
		},
		billingHandler: &handlers.BillingHandler{
			Stripe:  stripeService,
			Billing: billingService,
			Plans:   cfg.Plans,
		},
		notificationHandler: &handlers.NotificationHandler{Service: notificationService},
		dashboardHandler:    &handlers.DashboardHandler{Service: dashboardService},
		db:                  db,
	}

	// Document status changes are pushed to the owner's open websocket.
	documentService.Notify = func(n models.Notification) {
		if app.wsManager != nil {
			app.wsManager.broadcast <- n
		}
	}

	return app, nil
}
