package user

import (
	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
)

const currentUserKey = "current_user"

// IdentityMiddleware résout l'utilisateur interne une fois par requête.
// Sans session, la requête continue : AuthMiddleware décide du 401.
func IdentityMiddleware(resolver *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := auth.PrincipalFrom(c)
		if !ok {
			c.Next()
			return
		}

		u, found, err := resolver.Resolve(c.Request.Context(), principal.ID)
		if err != nil {
			apperr.Respond(c, err, map[string]interface{}{"principalID": principal.ID})
			return
		}
		if found {
			c.Set(currentUserKey, u)
		}
		c.Next()
	}
}

// Current retourne l'utilisateur résolu, ou false si le principal n'a pas encore de profil
func Current(c *gin.Context) (*User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*User)
	return u, ok && u != nil
}

// RequireCurrent distingue "pas de session" (401) de "session sans profil" (404)
func RequireCurrent(c *gin.Context) (*User, error) {
	if _, ok := auth.PrincipalFrom(c); !ok {
		return nil, apperr.Unauthenticated("unauthorized")
	}
	u, ok := Current(c)
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}
