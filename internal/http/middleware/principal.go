package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/regiondesk/backend/internal/models"
)

const principalKey = "principal"

// SessionClaims is the token shape minted by the session provider. The
// gateway only authorizes; the provider already authenticated the user.
type SessionClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	Region     string `json:"region,omitempty"`
	ExternalID int    `json:"external_id,omitempty"`
	GroupIDs   []int  `json:"group_ids,omitempty"`
	jwt.RegisteredClaims
}

// Principal validates the session token and stores the resulting
// principal on the request context. Requests without a valid token are
// rejected.
func Principal(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortUnauthorized(c, "Missing session token")
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid session token")
			return
		}

		role := strings.ToLower(strings.TrimSpace(claims.Role))
		switch role {
		case models.RoleCustomer, models.RoleStaff, models.RoleAdmin:
		default:
			abortUnauthorized(c, "Unknown role")
			return
		}

		c.Set(principalKey, models.Principal{
			ID:         claims.Subject,
			Role:       role,
			Email:      strings.ToLower(strings.TrimSpace(claims.Email)),
			Region:     strings.ToLower(strings.TrimSpace(claims.Region)),
			ExternalID: claims.ExternalID,
			GroupIDs:   claims.GroupIDs,
		})
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal for the request.
func PrincipalFrom(c *gin.Context) models.Principal {
	p, _ := c.Get(principalKey)
	principal, _ := p.(models.Principal)
	return principal
}

// SetPrincipal injects a principal directly; test helper.
func SetPrincipal(p models.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireStaff admits staff and admin principals.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if !p.IsStaff() && !p.IsAdmin() {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin admits admin principals only.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PrincipalFrom(c).IsAdmin() {
			abortForbidden(c)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(header, "Bearer "); token != header {
		return strings.TrimSpace(token)
	}
	// Websocket clients cannot set headers; allow a query token.
	return c.Query("token")
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

func abortForbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Insufficient role",
		},
	})
}
