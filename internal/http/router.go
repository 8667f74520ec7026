package http

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"

	"github.com/JaMes-pong/MeTube/internal/config"
	"github.com/JaMes-pong/MeTube/internal/engine"
	"github.com/JaMes-pong/MeTube/internal/jobs"
	"github.com/JaMes-pong/MeTube/internal/metrics"
)

// Deps carries the collaborators every handler pulls out of the
// request context. Injecting them keeps handlers testable with fakes.
type Deps struct {
	Store     *jobs.Store
	Runner    *jobs.Runner
	Streamer  *jobs.Streamer
	Retention *jobs.Manager
	Fetcher   engine.Fetcher
}

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	app := fiber.New()

	// Inject config and collaborators into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("store", deps.Store)
		c.Locals("runner", deps.Runner)
		c.Locals("streamer", deps.Streamer)
		c.Locals("retention", deps.Retention)
		c.Locals("fetcher", deps.Fetcher)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		if logger != nil {
			c.Locals("logger", logger)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	allowOrigins := "http://localhost:5173"
	if len(cfg.CORS.AllowOrigins) > 0 {
		allowOrigins = strings.Join(cfg.CORS.AllowOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,DELETE",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	// Health endpoint
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	api := app.Group("/api")
	registerAPIRoutes(api)

	return &Server{
		app:    app,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown stops accepting new connections and waits for active
// handlers to finish.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerAPIRoutes(group fiber.Router) {
	group.Get("/status", serviceStatusHandler)
	group.Post("/get-video-info", videoInfoHandler)
	group.Post("/download/start", startDownloadHandler)
	group.Get("/download/progress/:id", progressStreamHandler)
	group.Get("/download/status/:id", downloadStatusHandler)
	group.Get("/download/file/:id", downloadFileHandler)
	group.Delete("/download/:id", deleteDownloadHandler)
}
