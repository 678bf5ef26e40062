package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(authHeader, "Bearer "), true
}

// parsePrincipal vérifie la signature HS256 et extrait sub / email
func parsePrincipal(tokenStr string, secret []byte) (auth.Principal, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		// Vérifie que Supabase a bien utilisé HS256
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("signature invalide")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return auth.Principal{}, err
	}
	if !token.Valid {
		return auth.Principal{}, fmt.Errorf("token invalide")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return auth.Principal{}, fmt.Errorf("claims invalides")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return auth.Principal{}, fmt.Errorf("sub manquant")
	}
	email, _ := claims["email"].(string)
	return auth.Principal{ID: sub, Email: email}, nil
}

// AuthMiddleware rejette toute requête sans session valide (401)
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)

	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		principal, err := parsePrincipal(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			logs.LogJSON("WARN", "Invalid access token", map[string]interface{}{
				"error": err.Error(),
				"route": c.FullPath(),
			})
			return
		}

		auth.SetPrincipal(c, principal, tokenStr)
		c.Next()
	}
}
