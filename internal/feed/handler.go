// Package feed assemble le fil public et notifie ses changements en SSE.
package feed

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/events"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/like"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/post"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Options struct {
	DefaultLimit int
	MaxLimit     int
	Heartbeat    time.Duration
}

type Handler struct {
	posts  *post.Store
	likes  *like.Tracker
	broker *events.Broker
	opts   Options
}

func NewHandler(posts *post.Store, likes *like.Tracker, broker *events.Broker, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 25 * time.Second
	}
	return &Handler{posts: posts, likes: likes, broker: broker, opts: opts}
}

// limit lit ?limit=, plafonné à MaxLimit
func (h *Handler) limit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return h.opts.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Invalid("limit must be a positive integer")
	}
	if n > h.opts.MaxLimit {
		n = h.opts.MaxLimit
	}
	return n, nil
}

func viewerID(c *gin.Context) string {
	if u, ok := user.Current(c); ok {
		return u.ID
	}
	return ""
}

// ListPosts GET /api/posts
func (h *Handler) ListPosts(c *gin.Context) {
	route := c.FullPath()
	viewer := viewerID(c)

	limit, err := h.limit(c)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"limit": c.Query("limit")})
		return
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), limit)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": viewer})
		return
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	liked, err := h.likes.LikedPostIDs(c.Request.Context(), viewer, ids)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": viewer})
		return
	}
	for i := range posts {
		posts[i].LikedByMe = liked[posts[i].ID]
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts})
	logs.LogJSON("DEBUG", "Posts retrieved", map[string]interface{}{
		"route":  route,
		"userID": viewer,
		"count":  len(posts),
	})
}

// GetPost GET /api/posts/:id
func (h *Handler) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewer := viewerID(c)

	p, err := h.posts.GetPost(c.Request.Context(), postID)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	liked, err := h.likes.LikedPostIDs(c.Request.Context(), viewer, []string{p.ID})
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID, "userID": viewer})
		return
	}
	p.LikedByMe = liked[p.ID]

	c.JSON(http.StatusOK, gin.H{"post": p})
}

// Events GET /api/feed/events
// Chaque événement invite le client à recharger la liste.
func (h *Handler) Events(c *gin.Context) {
	route := c.FullPath()
	ch, unsubscribe := h.broker.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(h.opts.Heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	logs.LogJSON("DEBUG", "Feed stream opened", map[string]interface{}{
		"route":       route,
		"userID":      viewerID(c),
		"subscribers": h.broker.Subscribers(),
	})

	c.SSEvent("ready", gin.H{"ok": true})
	c.Writer.Flush()
	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})

	logs.LogJSON("DEBUG", "Feed stream closed", map[string]interface{}{"route": route})
}
