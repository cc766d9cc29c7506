package server

import (
	"context"

	"github.com/RyujiTanaka899/train-chat-app/internal/chat"
	"github.com/RyujiTanaka899/train-chat-app/internal/config"
	"github.com/RyujiTanaka899/train-chat-app/internal/line"
	"github.com/RyujiTanaka899/train-chat-app/internal/rider"
	"github.com/RyujiTanaka899/train-chat-app/internal/room"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Coord    *room.Coordinator
	Riders   *rider.Service
	Resolver *line.Resolver
}

// Deps carries the optional observability collaborators; zero value
// disables both.
type Deps struct {
	Metrics room.Metrics
	Events  room.Lifecycle
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, deps Deps) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	resolver := line.Default()
	if db != nil {
		resolver = line.LoadFromDB(context.Background(), db)
	}

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Coord:    room.NewCoordinator(redisClient, deps.Metrics, deps.Events),
		Riders:   rider.NewService(cfg.JWTSecret, redisClient),
		Resolver: resolver,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "rooms": s.Coord.RoomCount()})
	})

	rider.RegisterRoutes(s.App.Group("/riders"), s.Riders)
	line.RegisterRoutes(s.App.Group("/lines"), s.Resolver)
	chat.RegisterRoutes(s.App.Group("/chat"), s.Coord, s.Riders)
}
