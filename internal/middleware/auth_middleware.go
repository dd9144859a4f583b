package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sportpicks/sportpicks-backend/internal/config"
	"golang.org/x/exp/slog"
)

// JWTAuthMiddleware creates a gin middleware for operator JWT authentication
func JWTAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	jwtSecret := []byte(cfg.JWT.Secret)

	return func(c *gin.Context) {
		const bearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}
		tokenString := authHeader[len(bearerSchema):]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
				return
			}
			slog.Warn("Token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		c.Set("operatorID", claims["sub"])
		c.Set("operatorEmail", claims["email"])
		c.Set("operatorRole", claims["role"])
		c.Next()
	}
}

// CronAuthMiddleware guards the scheduler trigger endpoints with the shared
// secret the external timers carry, either as a Bearer token or X-Api-Key.
func CronAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	secret := cfg.Scheduler.APIKey

	return func(c *gin.Context) {
		if secret == "" {
			// Misconfiguration must fail closed, never open.
			slog.Error("Scheduler API key not configured, rejecting trigger")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler triggers are not configured"})
			return
		}

		presented := c.GetHeader("X-Api-Key")
		if presented == "" {
			const bearerSchema = "Bearer "
			if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, bearerSchema) {
				presented = authHeader[len(bearerSchema):]
			}
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid scheduler credentials"})
			return
		}
		c.Next()
	}
}
