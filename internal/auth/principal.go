package auth

import "github.com/gin-gonic/gin"

const (
	principalKey   = "principal"
	accessTokenKey = "access_token"
)

// Principal est l'identité fournie par le fournisseur d'authentification
type Principal struct {
	ID    string
	Email string
}

// SetPrincipal est appelé par les middlewares d'authentification
func SetPrincipal(c *gin.Context, p Principal, accessToken string) {
	c.Set(principalKey, p)
	c.Set(accessTokenKey, accessToken)
}

// PrincipalFrom retourne false quand la requête n'a pas de session
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok && p.ID != ""
}

func AccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
