package user

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/storage"
)

// EmailLookup complète l'email quand le token n'en porte pas (auth.Provider)
type EmailLookup interface {
	FetchUser(ctx context.Context, accessToken string) (auth.Principal, error)
}

type Handler struct {
	profiles *ProfileService
	emails   EmailLookup
	uploader storage.Uploader
}

func NewHandler(profiles *ProfileService, emails EmailLookup, uploader storage.Uploader) *Handler {
	return &Handler{profiles: profiles, emails: emails, uploader: uploader}
}

var validAvatarExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true,
}

// GetProfile GET /api/profile
func (h *Handler) GetProfile(c *gin.Context) {
	if _, ok := auth.PrincipalFrom(c); !ok {
		apperr.Respond(c, apperr.Unauthenticated("unauthorized"), nil)
		return
	}

	// Session sans profil : état partiel valide
	u, ok := Current(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil, "profile": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u, "profile": u.Profile})
}

// SaveProfile POST /api/profile
func (h *Handler) SaveProfile(c *gin.Context) {
	route := c.FullPath()

	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.Unauthenticated("unauthorized"), nil)
		return
	}

	var input ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperr.Respond(c, apperr.Invalid("invalid request body"), map[string]interface{}{"error": err.Error()})
		return
	}

	if principal.Email == "" && h.emails != nil {
		if fetched, err := h.emails.FetchUser(c.Request.Context(), auth.AccessToken(c)); err == nil {
			principal.Email = fetched.Email
		} else {
			logs.LogJSON("WARN", "Email lookup failed", map[string]interface{}{
				"error":       err.Error(),
				"route":       route,
				"principalID": principal.ID,
			})
		}
	}

	u, err := h.profiles.Save(c.Request.Context(), principal, input)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"principalID": principal.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "profile": u.Profile})
	logs.LogJSON("INFO", "Profile saved", map[string]interface{}{
		"route":    route,
		"userID":   u.ID,
		"userType": u.Kind,
	})
}

// UploadAvatar POST /api/profile/avatar
func (h *Handler) UploadAvatar(c *gin.Context) {
	route := c.FullPath()

	u, err := RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		apperr.Respond(c, apperr.Invalid("avatar file is required"), map[string]interface{}{"userID": u.ID})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !validAvatarExtensions[ext] {
		apperr.Respond(c, apperr.Invalid("invalid file extension"), map[string]interface{}{"userID": u.ID})
		return
	}

	// Le nom change à chaque upload pour ne pas écraser l'ancienne image avant le commit
	filename := fmt.Sprintf("user_%s_%d%s", u.ID, h.profiles.now().UnixNano(), ext)
	url, err := h.uploader.Upload(c.Request.Context(), "avatars", filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "avatar upload failed"})
		logs.LogJSON("ERROR", "Avatar upload failed", map[string]interface{}{
			"error":  err.Error(),
			"route":  route,
			"userID": u.ID,
		})
		return
	}

	previous, err := h.profiles.SetAvatar(c.Request.Context(), u.ID, url)
	if err != nil {
		// La base n'a pas bougé : on retire le nouvel objet
		_ = h.uploader.Delete(c.Request.Context(), url)
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID})
		return
	}

	if previous != "" {
		if err := h.uploader.Delete(c.Request.Context(), previous); err != nil {
			logs.LogJSON("WARN", "Old avatar deletion failed", map[string]interface{}{
				"error":  err.Error(),
				"route":  route,
				"userID": u.ID,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
	logs.LogJSON("INFO", "Avatar updated", map[string]interface{}{
		"route":  route,
		"userID": u.ID,
	})
}
