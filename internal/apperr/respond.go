package apperr

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
)

// Respond écrit {"error": ...} avec le bon statut et journalise.
// Les erreurs de base sont loguées avec leur stack, jamais renvoyées au client.
func Respond(c *gin.Context, err error, fields map[string]interface{}) {
	kind := KindOf(err)

	entry := map[string]interface{}{
		"route": c.FullPath(),
		"kind":  kind.String(),
	}
	for k, v := range fields {
		entry[k] = v
	}

	if kind == KindStoreFailure {
		entry["error"] = err.Error()
		var ae *Error
		if errors.As(err, &ae) && ae.Err != nil {
			entry["stack"] = fmt.Sprintf("%+v", ae.Err)
		}
		logs.LogJSON("ERROR", "Request failed", entry)
	} else {
		entry["reason"] = PublicMessage(err)
		logs.LogJSON("WARN", "Request rejected", entry)
	}

	c.AbortWithStatusJSON(kind.Status(), gin.H{"error": PublicMessage(err)})
}
