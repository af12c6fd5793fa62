package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/AIWebFAZ/frdfund/internal/models"
)

const actorKey = "Actor"

// Claims is the token payload issued at login. Role/Province mirror the
// first entry of Roles/Provinces for legacy single-role clients.
type Claims struct {
	UserID    uint     `json:"id"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name"`
	Role      string   `json:"role"`
	Roles     []string `json:"roles"`
	Province  string   `json:"province"`
	Provinces []string `json:"provinces"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and stores a canonical Actor in
// the context. Roles and Provinces are always populated, falling back to
// the single-value claims when the arrays are absent.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "No token provided"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		c.Set(actorKey, ActorFromClaims(claims))
		c.Next()
	}
}

// ActorFromClaims builds the canonical Actor, regardless of whether the
// token carries arrays or legacy single values.
func ActorFromClaims(claims *Claims) models.Actor {
	roles := make([]models.Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, models.Role(r))
	}
	if len(roles) == 0 && claims.Role != "" {
		roles = append(roles, models.Role(claims.Role))
	}

	provinces := claims.Provinces
	if len(provinces) == 0 && claims.Province != "" {
		provinces = []string{claims.Province}
	}

	return models.Actor{
		ID:        claims.UserID,
		Username:  claims.Username,
		FullName:  claims.FullName,
		Roles:     roles,
		Provinces: provinces,
	}
}

// Actor returns the authenticated actor placed by RequireAuth.
func Actor(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// RequireRole rejects actors holding none of the given roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
			return
		}
		for _, r := range roles {
			if actor.HasRole(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	}
}
