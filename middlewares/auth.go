package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"promptcoach/models"
	"promptcoach/utils"

	"github.com/gin-gonic/gin"
)

const ownerKey = "owner"

// TokenParser verifies session tokens
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// OptionalAuth attaches the session identity when a token is sent. Requests
// without one continue anonymously; a bad token is still rejected.
func OptionalAuth(tokens TokenParser, tenant string) gin.HandlerFunc {
	return authenticate(tokens, tenant, false)
}

// AuthMiddleware requires a valid session token
func AuthMiddleware(tokens TokenParser, tenant string) gin.HandlerFunc {
	return authenticate(tokens, tenant, true)
}

func authenticate(tokens TokenParser, tenant string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if token == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization token"})
				return
			}
			c.Next()
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if claims.Tenant != tenant {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token issued for another tenant"})
			return
		}

		c.Set(ownerKey, models.Owner{Tenant: claims.Tenant, UserID: claims.UserID})
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the token query parameter
// for websocket upgrades where browsers cannot set headers.
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return c.Query("token"), nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("Invalid Authorization token format")
	}
	return parts[1], nil
}

// Owner returns the identity set by the auth middlewares, or the zero Owner.
func Owner(c *gin.Context) models.Owner {
	if v, ok := c.Get(ownerKey); ok {
		if owner, ok := v.(models.Owner); ok {
			return owner
		}
	}
	return models.Owner{}
}
