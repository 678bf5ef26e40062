package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// TokenRefresher est implémenté par auth.Provider
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, error)
}

// OptionalAuthMiddleware pose le principal quand un token valide est présent,
// sans jamais rejeter la requête. Un token expiré est rafraîchi si le client
// envoie X-Refresh-Token ; le nouveau token est renvoyé dans X-New-Access-Token.
func OptionalAuthMiddleware(jwtSecret string, refresher TokenRefresher) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		refreshToken := c.GetHeader("X-Refresh-Token")
		if refreshToken != "" && refresher != nil && isExpired(tokenStr) {
			newToken, err := refresher.RefreshAccessToken(c.Request.Context(), refreshToken)
			if err != nil {
				logs.LogJSON("WARN", "Token refresh failed", map[string]interface{}{
					"error": err.Error(),
					"route": c.FullPath(),
				})
			} else {
				tokenStr = newToken
				c.Header("X-New-Access-Token", newToken)
			}
		}

		// Re-validation avec clé secrète
		principal, err := parsePrincipal(tokenStr, secret)
		if err != nil {
			c.Next()
			return
		}

		auth.SetPrincipal(c, principal, tokenStr)
		c.Next()
	}
}

func isExpired(tokenStr string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
