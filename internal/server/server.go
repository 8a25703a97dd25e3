package server

import (
	"net/http"
	"strings"
	"time"

	_ "github.com/franciscosanchezn/ia-platform-api/docs" // generated OpenAPI document
	"github.com/franciscosanchezn/ia-platform-api/internal/auth"
	"github.com/franciscosanchezn/ia-platform-api/internal/config"
	"github.com/franciscosanchezn/ia-platform-api/internal/controllers"
	"github.com/franciscosanchezn/ia-platform-api/internal/middleware"
	"github.com/franciscosanchezn/ia-platform-api/internal/models"
	"github.com/franciscosanchezn/ia-platform-api/internal/observability"
	"github.com/franciscosanchezn/ia-platform-api/internal/ratelimit"
	"github.com/franciscosanchezn/ia-platform-api/internal/services"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const serviceName = "ia-platform-api"

// Dependencies are the collaborators built by main and shared with the router
type Dependencies struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *logrus.Logger
	Limiter ratelimit.Limiter
	Prom    *observability.Prom // nil disables /metrics
	Tracer  trace.TracerProvider // nil disables request spans
	Version string
}

// App is the assembled HTTP application
type App struct {
	Router *gin.Engine
	OAuth  *auth.OAuthService

	deps      Dependencies
	startedAt time.Time
}

func New(deps Dependencies) *App {
	cfg := deps.Config
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	userService := services.NewUserService(deps.DB, cfg.BcryptCost)
	modelService := services.NewModelService(deps.DB)
	clientService := services.NewClientService(deps.DB)

	app := &App{
		OAuth:     auth.NewOAuthService(deps.DB, tokens, userService, deps.Log),
		deps:      deps,
		startedAt: time.Now(),
	}

	authController := controllers.NewAuthController(userService, tokens, deps.Prom)
	modelController := controllers.NewModelController(modelService)
	clientController := controllers.NewClientController(clientService)

	router := gin.New()
	// Forwarded headers are only believed from configured proxies; the rate limiter keys on the result
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		deps.Log.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.Recovery(deps.Log, cfg.IsDevelopment()))
	router.Use(middleware.RequestID())
	if deps.Tracer != nil {
		router.Use(otelgin.Middleware(serviceName, otelgin.WithTracerProvider(deps.Tracer)))
	}
	if deps.Prom != nil {
		router.Use(deps.Prom.GinHandleMiddleware())
	}
	router.Use(middleware.RequestLogger(deps.Log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(strings.Split(cfg.FrontendURL, ",")))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))
	router.Use(middleware.MaxBodyBytes(cfg.MaxBodyBytes))
	router.Use(middleware.ErrorHandler(deps.Log, cfg.IsDevelopment()))

	router.GET("/health", app.healthCheckHandler)
	router.GET("/", app.indexHandler)
	router.NoRoute(notFoundHandler)

	if deps.Prom != nil {
		router.GET("/metrics", deps.Prom.Handler())
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limit := middleware.RateLimit(deps.Limiter, deps.Log, deps.Prom)
	requireAuth := middleware.AuthenticateToken(tokens, userService, deps.Prom)

	router.POST("/oauth/token", limit, app.OAuth.HandleToken)

	api := router.Group("/api", limit)
	{
		authApi := api.Group("/auth")
		{
			authApi.POST("/login", authController.Login)
			authApi.POST("/register", authController.Register)

			authApi.GET("/profile", requireAuth, authController.GetProfile)
			authApi.PUT("/profile", requireAuth, authController.UpdateProfile)
			authApi.GET("/validate", requireAuth, authController.Validate)
			authApi.POST("/logout", requireAuth, authController.Logout)
		}

		modelApi := api.Group("/models", requireAuth)
		{
			modelApi.GET("", modelController.GetAllModels)
			modelApi.GET("/:id", modelController.GetModelByID)
			modelApi.POST("", modelController.CreateModel)
			modelApi.PUT("/:id", modelController.UpdateModel)
			modelApi.DELETE("/:id", modelController.DeleteModel)
		}

		clientApi := api.Group("/clients", requireAuth)
		{
			clientApi.POST("", clientController.CreateClient)
			clientApi.GET("", clientController.GetClients)
			clientApi.DELETE("/:id", clientController.DeleteClient)
		}

		adminApi := api.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			adminApi.GET("/users", authController.ListUsers)
		}
	}

	app.Router = router
	return app
}

var availableEndpoints = []string{
	"GET /",
	"GET /health",
	"POST /api/auth/login",
	"POST /api/auth/register",
	"GET /api/auth/profile",
	"PUT /api/auth/profile",
	"GET /api/auth/validate",
	"POST /api/auth/logout",
	"GET /api/models",
	"POST /api/models",
	"GET /api/clients",
	"POST /api/clients",
	"POST /oauth/token",
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success":            false,
		"error":              "Endpoint not found",
		"message":            "Cannot " + c.Request.Method + " " + c.Request.URL.Path,
		"availableEndpoints": availableEndpoints,
	})
}
