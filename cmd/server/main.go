package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/auth"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/cache"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/config"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/handlers"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/handlers/ws"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/middleware"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/repository"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/service"
	"github.com/mohammadHusnain/SKILLSWAPP/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	app := fiber.New(fiber.Config{
		AppName: "SkillSwapp Messaging",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	// Database
	db, err := repository.InitDB(cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Redis (optional; caches and presence degrade to no-ops without it)
	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}
	messageCache := cache.NewMessageCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	userService := service.NewUserService(userRepo)
	chatService := service.NewChatService(conversationRepo, messageRepo, messageCache)
	notificationService := service.NewNotificationService(notificationRepo)
	chatService.SetNotifier(notificationService)

	// Socket hub; live notification delivery goes through it
	hub := ws.NewHub()
	notificationService.SetPusher(hub)

	// Attachment storage (best-effort; endpoints return 503 if missing)
	var attachmentStore *storage.AttachmentStorage
	if cfg.S3Configured() {
		store, err := storage.NewAttachmentStorage(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Printf("WARNING: Failed to initialize attachment storage: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := store.EnsureBucket(ctx); err != nil {
				log.Printf("WARNING: Could not ensure bucket %s: %v", cfg.S3Bucket, err)
			}
			cancel()
			attachmentStore = store
			log.Printf("Attachment storage initialized (bucket=%s)", cfg.S3Bucket)
		}
	} else {
		log.Println("WARNING: Attachment storage not configured")
	}

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(hub, chatService, notificationService, userService, presenceCache, verifier)
	conversationHandler := handlers.NewConversationHandler(chatService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentStore)
	presenceHandler := handlers.NewPresenceHandler(presenceCache)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// REST API
	api := app.Group("/api", middleware.AuthRequired(verifier), limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))
	api.Get("/conversations", conversationHandler.ListConversations)
	api.Post("/conversations", conversationHandler.CreateConversation)
	api.Get("/conversations/:id/messages", conversationHandler.GetMessages)
	api.Get("/notifications", notificationHandler.ListNotifications)
	api.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	api.Post("/notifications/read-all", notificationHandler.MarkAllRead)
	api.Post("/notifications/:id/read", notificationHandler.MarkRead)
	api.Delete("/notifications/:id", notificationHandler.DeleteNotification)
	api.Post("/attachments", attachmentHandler.PresignUpload)
	api.Get("/attachments/url", attachmentHandler.PresignDownload)
	api.Delete("/attachments", attachmentHandler.DeleteAttachment)
	api.Get("/presence", presenceHandler.ListOnline)
	api.Get("/presence/:id", presenceHandler.GetUserPresence)

	// WebSocket endpoints. Auth happens inside the session, not in
	// middleware, so failures surface as application close codes.
	app.Get("/ws", wsHandler.Upgrade, websocket.New(wsHandler.HandleConnection))
	app.Get("/ws/:conversation_id", wsHandler.Upgrade, websocket.New(wsHandler.HandleConnection))

	log.Printf("Listening on :%s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
