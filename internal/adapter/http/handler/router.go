package handler

import (
	"custodial-exchange/internal/adapter/http/middleware"
	redisStore "custodial-exchange/internal/adapter/storage/redis"
	"custodial-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	SettlementSvc   ports.SettlementService
	AccountSvc      ports.AccountService
	ProvisioningSvc ports.ProvisioningService
	AccessSvc       ports.AccessService
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- API-key-authenticated routes (integration client surface) ---
	apiKeyAuth := middleware.APIKeyAuth(deps.AccessSvc, deps.Logger)
	tradeHandler := NewTradeHandler(deps.SettlementSvc)
	accountHandler := NewAccountHandler(deps.AccountSvc)

	trades := v1.Group("/trades", apiKeyAuth)
	{
		trades.POST("/buy", rl("trades"), tradeHandler.Buy)
		trades.POST("/sell", rl("trades"), tradeHandler.Sell)
	}

	accounts := v1.Group("/users/:id", apiKeyAuth)
	{
		accounts.GET("/authorizations", rl("accounts"), accountHandler.ListAuthorizations)
		accounts.GET("/balances", rl("accounts"), accountHandler.GetBalances)
	}

	// --- JWT-authenticated routes (operator provisioning) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminHandler := NewAdminHandler(deps.ProvisioningSvc)

	admin := v1.Group("/admin", jwtAuth)
	{
		admin.POST("/users", rl("provisioning"), adminHandler.CreateUser)
		admin.PUT("/users/:id/authorizations", rl("provisioning"), adminHandler.SetAuthorizations)
		admin.POST("/payments", rl("provisioning"), adminHandler.RecordPayment)
		admin.GET("/transactions", rl("provisioning"), adminHandler.ListTransactions)
	}

	return r
}
