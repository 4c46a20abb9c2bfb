package server

import (
	"context"
	"log"
	"net"

	"ai-memchat-be/internal/bootstrap"
	"ai-memchat-be/internal/config"
	"ai-memchat-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

// Routes registers the application's HTTP and socket routes on an app.
type Routes interface {
	RegisterRoutes(app *fiber.App)
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(corsOrigins string, routes Routes) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	routes.RegisterRoutes(app)
	return app
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	return &Server{
		app:       NewApp(cfg.App.CorsAllowedOrigins, container.ChatSocketHandler),
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Serve runs the app on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown closes open sockets first since they are hijacked connections
// the HTTP server would otherwise wait on, then drains the container.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.container.WebSocketHub.Shutdown(ctx); err != nil {
		log.Printf("[WARN] Socket handlers still running: %v", err)
	}
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	return s.container.Shutdown(ctx)
}
