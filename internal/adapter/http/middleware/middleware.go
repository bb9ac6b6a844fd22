package middleware

import (
	"net/http"
	"strconv"
	"time"

	"custodial-exchange/internal/core/ports"
	"custodial-exchange/pkg/apperror"
	"custodial-exchange/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Header names for API key authentication
	HeaderClientID = "X-Client-ID"
	HeaderAPIKey   = "X-API-Key"

	// Context keys
	CtxClientID  = "client_id"
	CtxClientKey = "client"
	CtxUsername  = "username"
)

// APIKeyAuth creates a middleware that authenticates the integration client
// by its numeric id and API key. The key comparison inside the access
// service is constant-time; a missing client and a wrong key produce the
// same response.
func APIKeyAuth(accessSvc ports.AccessService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIDStr := c.GetHeader(HeaderClientID)
		apiKey := c.GetHeader(HeaderAPIKey)

		if clientIDStr == "" || apiKey == "" {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		clientID, err := strconv.ParseInt(clientIDStr, 10, 64)
		if err != nil {
			response.Error(c, apperror.ErrInvalidAPIKey())
			c.Abort()
			return
		}

		client, err := accessSvc.Authorize(c.Request.Context(), clientID, apiKey)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxClientID, client.ID)
		c.Set(CtxClientKey, client)
		c.Next()
	}
}

// JWTAuth creates a middleware that validates JWT tokens for the operator
// provisioning routes.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		tokenStr := authHeader[7:]
		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxClientID, claims.ClientID)
		c.Set(CtxUsername, claims.Username)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize returns middleware that limits the request body size.
// Once the limit is exceeded the reader returns an error and the
// request is rejected with 413 Payload Too Large.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
