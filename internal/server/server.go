package server

import (
	"context"

	"lamdam-be/internal/bootstrap"
	"lamdam-be/internal/config"
	"lamdam-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Imports post whole datasets in one body.
const bodyLimit = 50 * 1024 * 1024

type Server struct {
	app       *fiber.App
	addr      string
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "lamdam-backend",
		BodyLimit:    bodyLimit,
		ErrorHandler: serverutils.ErrorHandlerMiddleware(container.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))
	// spans for every request; no-op until the tracer provider is installed
	app.Use(otelfiber.Middleware())

	s := &Server{app: app, addr: ":" + cfg.App.Port, container: container}
	s.routes()
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Listening", map[string]interface{}{"addr": s.addr})
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	c := s.container
	api := s.app.Group("/api")

	api.Get("/health", s.health)

	c.OAuthController.RegisterRoutes(api)
	c.UserController.RegisterRoutes(api, c.AuthMiddleware)
	c.CollectionController.RegisterRoutes(api, c.AuthMiddleware)
	c.RecordController.RegisterRoutes(api, c.AuthMiddleware)
	c.NotificationHandler.RegisterRoutes(api)
}

func (s *Server) health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"realtimeUsers": s.container.WebSocketHub.ConnectedUsers(),
	}))
}
