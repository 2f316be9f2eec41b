package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commust/internal/applog"
	"commust/internal/config"
	"commust/internal/events"
	"commust/internal/handler"
	"commust/internal/middleware"
	"commust/internal/model"
	"commust/internal/repository"
	"commust/internal/service"
	"commust/internal/session"
	"commust/internal/ws"
	"commust/pkg/database"
	"commust/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	envErr := godotenv.Load()
	cfg := config.Load()

	builder := applog.New().Level(cfg.LogLevel)
	if cfg.LogFile != "" {
		builder = builder.FromPath(cfg.LogFile)
	}
	log, logFile, err := builder.Make()
	if err != nil {
		panic(err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	applog.SetLogger(log)
	if envErr != nil {
		log.Warn().Msg(".env file not found, using process environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Setup Database
	db, err := database.ConnectDB(database.Config{
		Driver:      cfg.DBDriver,
		DatabaseURL: cfg.DatabaseURL,
		Host:        cfg.DBHost,
		User:        cfg.DBUser,
		Password:    cfg.DBPassword,
		Name:        cfg.DBName,
		Port:        cfg.DBPort,
		SQLitePath:  cfg.SQLitePath,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := model.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// 3. Session store
	var store session.Store
	if cfg.RedisURL != "" {
		client, err := session.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer client.Close()
		store = session.NewRedisStore(client, cfg.SessionTTL)
	} else {
		log.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
		store = session.NewMemoryStore(cfg.SessionTTL)
	}

	// 4. Catalog events: websocket clients, plus Kafka when brokers are configured
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)
	publishers := events.Multi{wsHub}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	metaRepo := repository.NewMetaRepo(db)
	userRepo := repository.NewUserRepo(db)
	statsRepo := repository.NewStatsRepo(db)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL, "commust")
	cookies := middleware.CookieConfig{Secure: cfg.CookieSecure, MaxAge: cfg.SessionTTL}

	stockPolicy := service.NewStockPolicy(metaRepo)
	productService := service.NewProductService(productRepo, metaRepo, stockPolicy, db, publishers)
	cartService := service.NewCartService(store, productRepo, metaRepo, stockPolicy)
	dashService := service.NewDashboardService(statsRepo)
	authService := service.NewAuthService(userRepo, tokens)

	created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Error().Err(err).Msg("seed admin user")
	} else if created {
		log.Info().Str("email", cfg.AdminEmail).Msg("admin user created")
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "commust v1.0",
	})

	app.Use(requestid.New())
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.Count()})
	})

	// 7. Routes
	handler.Routes{
		Auth:        handler.NewAuthHandler(authService),
		Products:    handler.NewProductHandler(productService, cartService),
		Cart:        handler.NewCartHandler(cartService, cookies),
		Dashboard:   handler.NewDashboardHandler(dashService),
		RequireAuth: middleware.RequireAuth(tokens, userRepo),
		Session:     middleware.Session(cookies),
	}.Mount(app.Group("/api/v1"))

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Join(c)
		defer wsHub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	cancel()

	log.Info().Msg("server exited")
}
