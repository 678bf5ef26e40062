package post

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/apperr"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/events"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/logs"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Handler struct {
	store  *Store
	events events.Publisher
}

func NewHandler(store *Store, publisher events.Publisher) *Handler {
	return &Handler{store: store, events: publisher}
}

// postRequest accepte "content" comme alias de "body"
type postRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Content string `json:"content"`
}

func (r postRequest) input() PostInput {
	body := r.Body
	if body == "" {
		body = r.Content
	}
	return PostInput{Title: r.Title, Body: body}
}

type commentRequest struct {
	CommentID string `json:"commentId"`
	Content   string `json:"content"`
}

// bindPost ne répond pas lui-même : un corps illisible n'est signalé
// qu'après les contrôles d'existence et de droits du store
func bindPost(c *gin.Context) PostInput {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return MalformedPostInput(apperr.Invalid("invalid request body"))
	}
	return req.input()
}

func bindComment(c *gin.Context) (commentRequest, CommentInput) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, MalformedCommentInput(apperr.Invalid("invalid request body"))
	}
	return req, CommentInput{Content: req.Content}
}

func (h *Handler) publish(c *gin.Context, t events.Type, postID string) {
	if h.events != nil {
		h.events.Publish(c.Request.Context(), events.New(t, postID))
	}
}

// actorID vaut "" pour une session sans profil : elle ne possède rien
func actorID(c *gin.Context) (string, error) {
	if _, ok := auth.PrincipalFrom(c); !ok {
		return "", apperr.Unauthenticated("unauthorized")
	}
	if u, ok := user.Current(c); ok {
		return u.ID, nil
	}
	return "", nil
}

// CreatePost POST /api/posts
func (h *Handler) CreatePost(c *gin.Context) {
	route := c.FullPath()

	if _, ok := auth.PrincipalFrom(c); !ok {
		apperr.Respond(c, apperr.Unauthenticated("unauthorized"), nil)
		return
	}
	u, ok := user.Current(c)
	if !ok {
		apperr.Respond(c, apperr.Forbidden("only business accounts can create posts"), nil)
		return
	}

	p, err := h.store.CreatePost(c.Request.Context(), u.ID, bindPost(c))
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID})
		return
	}

	h.publish(c, events.PostCreated, p.ID)
	c.JSON(http.StatusCreated, gin.H{"post": p})
	logs.LogJSON("INFO", "Post created", map[string]interface{}{
		"route":  route,
		"userID": u.ID,
		"postID": p.ID,
	})
}

// UpdatePost PUT /api/posts/:id
func (h *Handler) UpdatePost(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	userID, err := actorID(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}

	p, err := h.store.UpdatePost(c.Request.Context(), userID, postID, bindPost(c))
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": userID, "postID": postID})
		return
	}

	h.publish(c, events.PostUpdated, p.ID)
	c.JSON(http.StatusOK, gin.H{"post": p})
	logs.LogJSON("INFO", "Post updated", map[string]interface{}{
		"route":  route,
		"userID": userID,
		"postID": postID,
	})
}

// DeletePost DELETE /api/posts/:id
func (h *Handler) DeletePost(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	userID, err := actorID(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}

	if err := h.store.DeletePost(c.Request.Context(), userID, postID); err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": userID, "postID": postID})
		return
	}

	h.publish(c, events.PostDeleted, postID)
	c.JSON(http.StatusOK, gin.H{"success": true})
	logs.LogJSON("INFO", "Post deleted", map[string]interface{}{
		"route":  route,
		"userID": userID,
		"postID": postID,
	})
}

// ListComments GET /api/posts/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	postID := c.Param("id")

	comments, err := h.store.ListComments(c.Request.Context(), postID)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment POST /api/posts/:id/comments
func (h *Handler) CreateComment(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	u, err := user.RequireCurrent(c)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"postID": postID})
		return
	}

	_, in := bindComment(c)
	comment, err := h.store.CreateComment(c.Request.Context(), u.ID, postID, in)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": u.ID, "postID": postID})
		return
	}

	h.publish(c, events.CommentCreated, postID)
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
	logs.LogJSON("INFO", "Comment created", map[string]interface{}{
		"route":     route,
		"userID":    u.ID,
		"postID":    postID,
		"commentID": comment.ID,
	})
}

// UpdateComment PUT /api/posts/:id/comments/:commentId
// (ou PUT /api/posts/:id/comments avec commentId dans le corps)
func (h *Handler) UpdateComment(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	userID, err := actorID(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}

	req, in := bindComment(c)
	commentID := c.Param("commentId")
	if commentID == "" {
		commentID = req.CommentID
	}
	if commentID == "" {
		apperr.Respond(c, apperr.Invalid("commentId is required"), map[string]interface{}{"userID": userID, "postID": postID})
		return
	}

	comment, err := h.store.UpdateComment(c.Request.Context(), userID, postID, commentID, in)
	if err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": userID, "postID": postID, "commentID": commentID})
		return
	}

	h.publish(c, events.CommentUpdated, postID)
	c.JSON(http.StatusOK, gin.H{"comment": comment})
	logs.LogJSON("INFO", "Comment updated", map[string]interface{}{
		"route":     route,
		"userID":    userID,
		"postID":    postID,
		"commentID": commentID,
	})
}

// DeleteComment DELETE /api/posts/:id/comments/:commentId
// (ou DELETE /api/posts/:id/comments avec commentId dans le corps)
func (h *Handler) DeleteComment(c *gin.Context) {
	route := c.FullPath()
	postID := c.Param("id")

	userID, err := actorID(c)
	if err != nil {
		apperr.Respond(c, err, nil)
		return
	}

	commentID := c.Param("commentId")
	if commentID == "" {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.CommentID == "" {
			apperr.Respond(c, apperr.Invalid("commentId is required"), map[string]interface{}{"userID": userID, "postID": postID})
			return
		}
		commentID = req.CommentID
	}

	if err := h.store.DeleteComment(c.Request.Context(), userID, postID, commentID); err != nil {
		apperr.Respond(c, err, map[string]interface{}{"userID": userID, "postID": postID, "commentID": commentID})
		return
	}

	h.publish(c, events.CommentDeleted, postID)
	c.JSON(http.StatusOK, gin.H{"success": true})
	logs.LogJSON("INFO", "Comment deleted", map[string]interface{}{
		"route":     route,
		"userID":    userID,
		"postID":    postID,
		"commentID": commentID,
	})
}
