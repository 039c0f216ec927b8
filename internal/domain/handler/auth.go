package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tenantIDKey is the gin context key the auth middleware stores the caller's
// tenant ID under.
const tenantIDKey = "tenant_id"

// TenantClaims are the JWT claims carried by a tenant session token. The
// session layer that issues these tokens lives in the main platform backend;
// this API only verifies them.
type TenantClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// TenantAuth returns a middleware that authenticates the calling tenant from
// a Bearer token signed with the shared HS256 secret.
func TenantAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.ParseWithClaims(
			tokenStr,
			&TenantClaims{},
			func(tok *jwt.Token) (any, error) {
				if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			},
			jwt.WithExpirationRequired(),
		)
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(*TenantClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid tenant ID in token"})
			return
		}

		c.Set(tenantIDKey, tenantID)
		c.Next()
	}
}

// TenantID returns the authenticated tenant from the request context. When
// absent it writes a 401 and returns false; handlers should simply return.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(tenantIDKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return uuid.Nil, false
	}
	return id, true
}

// SignTenantToken mints a tenant session token. Used by tests and the
// domainctl token helper; production tokens come from the session service.
func SignTenantToken(secret []byte, tenantID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := TenantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		TenantID: tenantID.String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
