package like

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/events"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Handler struct {
	tracker *Tracker
	events  events.Publisher
}

func NewHandler(tracker *Tracker, publisher events.Publisher) *Handler {
	return &Handler{tracker: tracker, events: publisher}
}

// GetLikeState GET /api/posts/:id/like
func (h *Handler) GetLikeState(c *gin.Context) {
	postID := c.Param("id")

	u, err := user.RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	state, err := h.tracker.GetLikeState(c.Request.Context(), u.ID, postID)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID, "postID": postID})
		return
	}
	c.JSON(http.StatusOK, state)
}

// ToggleLike POST /api/posts/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	u, err := user.RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	state, err := h.tracker.ToggleLike(c.Request.Context(), u.ID, postID)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID, "postID": postID})
		return
	}

	h.changed(c, postID)
	c.JSON(http.StatusOK, state)
	logs.LogJSON("INFO", "Like toggled", map[string]interface{}{
		"route":     route,
		"userID":    u.ID,
		"postID":    postID,
		"liked":     state.Liked,
		"likeCount": state.LikeCount,
	})
}

type setLikeRequest struct {
	Liked *bool `json:"liked"`
}

// SetLike PUT /api/posts/:id/like
// Le client n'applique l'état qu'après la réponse et revient au dernier état
// confirmé en cas d'erreur.
func (h *Handler) SetLike(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	u, err := user.RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	var req setLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Liked == nil {
		apperr.Respond(c, apperr.Invalid("liked is required"), map[string]interface{}{"userID": u.ID, "postID": postID})
		return
	}

	state, err := h.tracker.SetLike(c.Request.Context(), u.ID, postID, *req.Liked)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID, "postID": postID})
		return
	}

	h.changed(c, postID)
	c.JSON(http.StatusOK, state)
	logs.LogJSON("INFO", "Like set", map[string]interface{}{
		"route":  route,
		"userID": u.ID,
		"postID": postID,
		"liked":  state.Liked,
	})
}

func (h *Handler) changed(c *gin.Context, postID string) {
	if h.events != nil {
		h.events.Publish(c.Request.Context(), events.New(events.LikeChanged, postID))
	}
}
