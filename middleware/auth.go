// Package middleware holds the gin middleware guarding the API routes.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"store-rating-server/auth"
	"store-rating-server/entities"
)

const principalKey = "principal"

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Principal, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the context for later handlers.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole only lets principals with one of the given roles through.
// It must run after RequireAuth.
func RequireRole(roles ...entities.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok || !principal.Role.In(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the identity stored by RequireAuth.
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
