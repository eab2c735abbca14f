package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"drawparty-backend/internal/config"
	"drawparty-backend/internal/game"
	"drawparty-backend/internal/handler"
	"drawparty-backend/internal/storage"
	"drawparty-backend/internal/store"
)

// Server Fiber server wrapper
type Server struct {
	app           *fiber.App
	cfg           *config.Config
	db            *gorm.DB
	manager       *game.Manager
	gameWSHandler *handler.GameWSHandler
	resultHandler *handler.ResultHandler
	healthHandler *handler.HealthHandler
}

// New wires handlers around the already-constructed room registry, result
// store and object store.
func New(cfg *config.Config, db *gorm.DB, manager *game.Manager, results store.ResultStore, objects storage.ObjectStore) *Server {
	app := fiber.New(fiber.Config{
		AppName:         "Draw Party Backend",
		ServerHeader:    "Fiber",
		StrictRouting:   true,
		CaseSensitive:   true,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		Prefork:         false, // incompatible with WebSocket
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
	})

	return &Server{
		app:           app,
		cfg:           cfg,
		db:            db,
		manager:       manager,
		gameWSHandler: handler.NewGameWSHandler(manager, cfg.WebSocket),
		resultHandler: handler.NewResultHandler(results, objects),
		healthHandler: handler.NewHealthHandler(db, manager),
	}
}

// SetupMiddleware installs recovery, request logging and CORS.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, OPTIONS",
	}))
}

// SetupRoutes registers the HTTP and WebSocket surface.
func (s *Server) SetupRoutes() {
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// results are polled by clients after gameEnded, so they get a limiter
	resultLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	resultGroup := s.app.Group("/api/results", resultLimiter)
	resultGroup.Get("", s.resultHandler.ListResults)
	resultGroup.Get("/:roomId", s.resultHandler.GetResult)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/game", websocket.New(s.gameWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start runs the server until SIGINT/SIGTERM, then drains connections.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Draw Party Backend starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/game", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown stops the server with a drain timeout.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
