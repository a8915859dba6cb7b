package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsContextKey is the gin context key holding the validated *Claims.
const ClaimsContextKey = "sessionClaims"

// Middleware guards routes behind a valid session token.
type Middleware struct {
	issuer *Issuer
}

func NewMiddleware(issuer *Issuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// RequireAuth extracts the bearer token, validates it and stores the claims
// on the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := m.issuer.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// RequireRole allows the request through only when the session role is one
// of the given ones. Must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

// ClaimsFromContext returns the validated claims set by RequireAuth.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
