package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/crediya/iam-service/internal/api/handler"
	"github.com/crediya/iam-service/internal/api/middleware"
	"github.com/crediya/iam-service/internal/core/ports"
)

// AuthorityCliente guards the existence check.
const AuthorityCliente = "ROLE_CLIENTE"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log zerolog.Logger

	CreateUser ports.CreateUserService
	Auth       ports.AuthService
	ExistUser  ports.ExistUserService
	LoadUsers  ports.LoadUsersService
	Verifier   ports.TokenVerifier

	// Throttle is optional; nil disables failed-login limiting.
	Throttle handler.LoginThrottle
	// Checks are pinged by the readiness probe, keyed by dependency name.
	Checks map[string]handler.PingFunc

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "iam",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Throttle, d.Log)
	userHandler := handler.NewUserHandler(d.CreateUser, d.LoadUsers)
	existHandler := handler.NewExistHandler(d.ExistUser, d.Log)

	v1 := e.Group("/api/v1", middleware.Auth(d.Verifier, d.Now))

	// --- Public routes ---
	v1.POST("/login", authHandler.Login)
	v1.POST("/users", userHandler.Create)
	v1.GET("/users", userHandler.List)

	// --- Protected routes ---
	v1.POST("/users/exist", existHandler.Exist, middleware.RequireAuthority(AuthorityCliente))

	return e
}

// requestLogger writes one zerolog line per request. Only the path is logged
// so an access_token query parameter never reaches the logs.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
