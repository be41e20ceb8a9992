package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/marketplace/internal/config"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

var errInvalidPayload = errors.New("invalid token payload")

// ParseToken validates an HS256 token and returns its subject and role.
func ParseToken(secret, tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidPayload
	}

	userID, ok := claims["sub"].(float64)
	role, _ := claims["role"].(string)
	if !ok || userID <= 0 {
		return 0, "", errInvalidPayload
	}
	return uint(userID), role, nil
}

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization_header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_authorization_header"})
			return
		}

		userID, role, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			code := "invalid_token"
			if errors.Is(err, errInvalidPayload) {
				code = "invalid_token_payload"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, role)

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextUserRole) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires_" + role})
			return
		}
		c.Next()
	}
}

func RequireProvider() gin.HandlerFunc {
	return RequireRole(models.RoleProvider)
}

func RequireClient() gin.HandlerFunc {
	return RequireRole(models.RoleClient)
}
