package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/searchblog/blog-auth/internal/api/handler"
	"github.com/searchblog/blog-auth/internal/api/middleware"
	"github.com/searchblog/blog-auth/internal/core/domain"
	"github.com/searchblog/blog-auth/internal/core/ports"
	"github.com/searchblog/blog-auth/internal/infrastructure/http/handlers"
)

const metricsSubsystem = "blog_http"

// Dependencies are the collaborators NewRouter wires into routes.
type Dependencies struct {
	Users    ports.UserService
	Auth     ports.AuthService
	Tokens   ports.TokenAuthenticator
	Denylist ports.TokenDenylist // nil disables revocation checks
	Checks   []handlers.HealthCheck
	Log      zerolog.Logger

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:                 metricsSubsystem,
		Registerer:                deps.Registerer,
		DoNotUseRequestPathFor404: true,
	}))

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- API routes ---
	userHandler := handler.NewUserHandler(deps.Users, deps.Auth)
	authMiddleware := middleware.Auth(deps.Tokens, deps.Denylist, deps.Log)

	api := e.Group("/api")
	api.POST("/signup", userHandler.Signup)
	api.POST("/login", userHandler.Login)

	secured := api.Group("", authMiddleware)
	secured.POST("/logout", userHandler.Logout)
	secured.GET("/user", userHandler.Me,
		middleware.RequireAuthority(domain.RoleUser.Authority(), domain.RoleAdmin.Authority()))
	secured.GET("/user/:email", userHandler.GetUser,
		middleware.RequireAuthority(domain.RoleAdmin.Authority()))

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
