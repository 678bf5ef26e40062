// Package server assemble les handlers et middlewares de l'API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/analytics"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/auth"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/events"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/feed"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/like"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/middleware"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/post"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/storage"
	"github.com/ArthurDelaporte/CommunityFeed-Back/internal/user"
)

type Deps struct {
	DB        *gorm.DB
	JWTSecret string

	// Optionnels
	Provider  *auth.Provider
	Uploader  storage.Uploader
	Publisher events.Publisher

	Broker *events.Broker
	Feed   feed.Options
}

// Models liste toutes les tables dans l'ordre de migration
func Models() []interface{} {
	return append([]interface{}{&user.User{}, &user.Profile{}}, post.Models()...)
}

func NewRouter(d Deps) *gin.Engine {
	if d.Broker == nil {
		d.Broker = events.NewBroker(0)
	}
	publisher := d.Publisher
	if publisher == nil {
		publisher = d.Broker
	}

	// Évite de passer un *auth.Provider nil derrière une interface non nil
	var refresher middleware.TokenRefresher
	var emails user.EmailLookup
	if d.Provider != nil {
		refresher = d.Provider
		emails = d.Provider
	}

	posts := post.NewStore(d.DB)
	tracker := like.NewTracker(d.DB)

	profileHandler := user.NewHandler(user.NewProfileService(d.DB), emails, d.Uploader)
	postHandler := post.NewHandler(posts, publisher)
	likeHandler := like.NewHandler(tracker, publisher)
	feedHandler := feed.NewHandler(posts, tracker, d.Broker, d.Feed)
	analyticsHandler := analytics.NewHandler(analytics.NewService(d.DB))

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	identity := user.IdentityMiddleware(user.NewResolver(d.DB))
	api := r.Group("/api")

	// Lecture : session facultative
	public := api.Group("", middleware.OptionalAuthMiddleware(d.JWTSecret, refresher), identity)
	public.GET("/posts", feedHandler.ListPosts)
	public.GET("/posts/:id", feedHandler.GetPost)
	public.GET("/posts/:id/comments", postHandler.ListComments)
	public.GET("/feed/events", feedHandler.Events)

	private := api.Group("", middleware.AuthMiddleware(d.JWTSecret), identity)

	private.GET("/profile", profileHandler.GetProfile)
	private.POST("/profile", profileHandler.SaveProfile)
	private.POST("/profile/avatar", profileHandler.UploadAvatar)

	private.POST("/posts", postHandler.CreatePost)
	private.PUT("/posts/:id", postHandler.UpdatePost)
	private.DELETE("/posts/:id", postHandler.DeletePost)

	private.POST("/posts/:id/comments", postHandler.CreateComment)
	private.PUT("/posts/:id/comments", postHandler.UpdateComment)
	private.DELETE("/posts/:id/comments", postHandler.DeleteComment)
	private.PUT("/posts/:id/comments/:commentId", postHandler.UpdateComment)
	private.DELETE("/posts/:id/comments/:commentId", postHandler.DeleteComment)

	private.GET("/posts/:id/like", likeHandler.GetLikeState)
	private.POST("/posts/:id/like", likeHandler.ToggleLike)
	private.PUT("/posts/:id/like", likeHandler.SetLike)

	private.GET("/analytics", analyticsHandler.GetAnalytics)

	return r
}
