package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"escrow-chain.backend/pkg/jwt"
	"escrow-chain.backend/pkg/logger"
	"go.uber.org/zap"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// PartyIDKey is the context key for the authenticated party ID
	PartyIDKey = "partyId"
	// PartyRoleKey is the context key for the authenticated party role
	PartyRoleKey = "partyRole"
)

// AuthMiddleware creates a new authentication middleware
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			logger.Warn(c.Request.Context(), "token validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			if err == jwt.ErrExpiredToken {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		c.Set(PartyIDKey, claims.PartyID)
		c.Set(PartyRoleKey, claims.Role)

		c.Next()
	}
}

// GetPartyID gets the authenticated party ID from context
func GetPartyID(c *gin.Context) (string, bool) {
	partyID, exists := c.Get(PartyIDKey)
	if !exists {
		return "", false
	}
	return partyID.(string), true
}

// GetPartyRole gets the authenticated party role from context
func GetPartyRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(PartyRoleKey)
	if !exists {
		return "", false
	}
	return role.(string), true
}

// RequireRole creates a middleware that requires one of the given roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		partyRole, exists := GetPartyRole(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Party role not found",
			})
			return
		}

		for _, role := range roles {
			if partyRole == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	}
}
