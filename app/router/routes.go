// Package router provides HTTP routing, middleware configuration, and server setup for the relay
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"github.com/amirphl/order-relay/app/dto"
	"github.com/amirphl/order-relay/app/handlers"
	"github.com/amirphl/order-relay/app/middleware"
	"github.com/amirphl/order-relay/config"
	"github.com/amirphl/order-relay/docs"
	"github.com/amirphl/order-relay/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers groups the request handlers mounted by the router
type Handlers struct {
	Webhook        handlers.WebhookHandlerInterface
	TenantConfig   handlers.TenantConfigHandlerInterface
	MessageHistory handlers.MessageHistoryHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app            *fiber.App
	cfg            *config.ProductionConfig
	handlers       Handlers
	authMiddleware *middleware.AuthMiddleware
	healthChecks   map[string]func() error
}

// NewFiberRouter creates a new Fiber router. healthChecks are run by /api/v1/health
// and reported by name.
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, authMiddleware *middleware.AuthMiddleware, healthChecks map[string]func() error) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Order Relay",
		ServerHeader: "order-relay",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	return &FiberRouter{
		app:            app,
		cfg:            cfg,
		handlers:       h,
		authMiddleware: authMiddleware,
		healthChecks:   healthChecks,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	slog.Info("Setting up routes")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")
	api.Get("/health", r.healthCheck)
	api.Get("/swagger.json", r.serveSwaggerJSON)

	limited := r.app.Group("", limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	// Order webhooks
	signature := middleware.WebhookSignature(r.cfg.Security.WebhookSecret)
	limited.Post("/webhook", signature, r.handlers.Webhook.ReceiveOrder)
	limited.Post("/api/v1/webhooks/orders", signature, r.handlers.Webhook.ReceiveOrder)

	// Store configuration form and panel
	admin := r.authMiddleware.AdminAuthenticate()
	limited.Get("/configuracion/estado", admin, r.handlers.TenantConfig.ToggleState)
	limited.Post("/configuracion", admin, r.handlers.TenantConfig.SubmitForm)
	limited.Get("/panel", admin, r.handlers.MessageHistory.Panel)

	// Admin API
	tenants := limited.Group("/api/v1/admin/tenants", admin)
	tenants.Get("", r.handlers.TenantConfig.List)
	tenants.Get("/:shop", r.handlers.TenantConfig.Get)
	tenants.Put("/:shop", r.handlers.TenantConfig.Upsert)
	tenants.Get("/:shop/messages", r.handlers.MessageHistory.List)
	tenants.Get("/:shop/messages/export", r.handlers.MessageHistory.Export)

	r.app.Use(r.notFoundHandler)

	slog.Info("Routes configured successfully", slog.Bool("admin_auth", r.authMiddleware.Enabled()))
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			slog.Error("panic while serving request",
				slog.String("event", "panic"),
				slog.Any("request_id", c.Locals("requestid")),
				slog.Any("error", e),
				slog.String("path", c.Path()),
				slog.String("method", c.Method()),
				slog.String("ip", c.IP()),
			)
		},
	}))

	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             r.cfg.Security.XFrameOptions,
		HSTSMaxAge:                31536000,
		ReferrerPolicy:            r.cfg.Security.ReferrerPolicy,
		CrossOriginResourcePolicy: "cross-origin",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Stream:     log.Writer(),
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health" || c.Path() == r.cfg.Metrics.Path
			},
		}))
	}

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	slog.Info("Starting server", slog.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck reports each dependency; any failure turns the response into 503
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true
	for name, check := range r.healthChecks {
		if err := check(); err != nil {
			healthy = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	code, status, message := fiber.StatusOK, "ok", "Service is healthy"
	if !healthy {
		code, status, message = fiber.StatusServiceUnavailable, "degraded", "Service is degraded"
	}
	return c.Status(code).JSON(dto.APIResponse{
		Success: healthy,
		Message: message,
		Data: fiber.Map{
			"status":    status,
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "order-relay",
			"checks":    checks,
		},
	})
}

func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}
	c.Set("Content-Type", "application/json")
	return c.SendString(doc)
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// errorHandler is the global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	slog.Error("request failed", slog.Int("status", code), slog.Any("err", err), slog.String("path", c.Path()))

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
