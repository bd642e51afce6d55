// Package http assembles the Gin engine, wiring repositories, usecases,
// handlers and middleware together.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/bytescookies/cookievault/internal/application/auth/helpers"
	"github.com/bytescookies/cookievault/internal/application/auth/usecases"
	"github.com/bytescookies/cookievault/internal/infrastructure/auth"
	"github.com/bytescookies/cookievault/internal/infrastructure/config"
	"github.com/bytescookies/cookievault/internal/infrastructure/repository"
	"github.com/bytescookies/cookievault/internal/interfaces/http/handlers"
	"github.com/bytescookies/cookievault/internal/interfaces/http/middleware"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

type Router struct {
	engine         *gin.Engine
	authHandler    *handlers.AuthHandler
	deviceHandler  *handlers.DeviceHandler
	cookieHandler  *handlers.CookieHandler
	healthHandler  *handlers.HealthHandler
	authMiddleware *middleware.AuthMiddleware
	loginLimiter   *middleware.RateLimiter
	syncLimiter    *middleware.RateLimiter
	allowedOrigins []string
}

func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log logger.Interface) *Router {
	engine := gin.New()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	payloadRepo := repository.NewCookiePayloadRepository(db)

	hasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)
	jwtSvc := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes, cfg.Auth.JWT.RefreshExpDays)

	authHelper := helpers.NewAuthHelper(jwtSvc, sessionRepo, deviceRepo, log)

	registerUC := usecases.NewRegisterUseCase(userRepo, hasher, authHelper, log)
	loginUC := usecases.NewLoginUseCase(userRepo, hasher, authHelper, log)
	refreshTokenUC := usecases.NewRefreshTokenUseCase(userRepo, sessionRepo, jwtSvc, authHelper, log)
	logoutUC := usecases.NewLogoutUseCase(sessionRepo, log)
	listDevicesUC := usecases.NewListDevicesUseCase(deviceRepo, log)
	renameDeviceUC := usecases.NewRenameDeviceUseCase(deviceRepo, log)
	deactivateDeviceUC := usecases.NewDeactivateDeviceUseCase(deviceRepo, sessionRepo, log)
	syncCookiesUC := usecases.NewSyncCookiesUseCase(payloadRepo, log)

	return &Router{
		engine:         engine,
		authHandler:    handlers.NewAuthHandler(registerUC, loginUC, refreshTokenUC, logoutUC, log),
		deviceHandler:  handlers.NewDeviceHandler(listDevicesUC, renameDeviceUC, deactivateDeviceUC, log),
		cookieHandler:  handlers.NewCookieHandler(syncCookiesUC, log),
		healthHandler:  handlers.NewHealthHandler(db),
		authMiddleware: middleware.NewAuthMiddleware(jwtSvc, sessionRepo, log),
		loginLimiter: middleware.NewRateLimiter(redisClient,
			cfg.RateLimit.LoginLimit, time.Duration(cfg.RateLimit.LoginWindowS)*time.Second),
		syncLimiter: middleware.NewRateLimiter(redisClient,
			cfg.RateLimit.SyncLimit, time.Duration(cfg.RateLimit.SyncWindowS)*time.Second),
		allowedOrigins: cfg.Server.AllowedOrigins,
	}
}

func (r *Router) SetupRoutes(log logger.Interface) {
	r.engine.Use(middleware.RequestLogger(log))
	r.engine.Use(middleware.Recovery(log))
	r.engine.Use(middleware.CORS(r.allowedOrigins))
	r.engine.Use(middleware.SecurityHeaders())

	r.engine.GET("/health", r.healthHandler.Health)

	auth := r.engine.Group("/auth")
	{
		auth.POST("/register", r.loginLimiter.Limit(), r.authHandler.Register)
		auth.POST("/login", r.loginLimiter.Limit(), r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.RefreshToken)
		auth.POST("/logout", r.authMiddleware.RequireAuth(), r.authHandler.Logout)
	}

	devices := r.engine.Group("/devices")
	devices.Use(r.authMiddleware.RequireAuth())
	{
		devices.GET("", r.deviceHandler.ListDevices)
		devices.PATCH("/:deviceId", r.deviceHandler.RenameDevice)
		devices.DELETE("/:deviceId", r.deviceHandler.DeactivateDevice)
	}

	cookies := r.engine.Group("/cookies")
	cookies.Use(r.authMiddleware.RequireAuth())
	{
		cookies.POST("/sync", r.syncLimiter.Limit(), r.cookieHandler.SyncCookies)
		cookies.GET("/domains", r.cookieHandler.ListDomains)
		cookies.GET("/:domain", r.cookieHandler.GetCookies)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
