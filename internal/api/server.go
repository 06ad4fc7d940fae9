// Package api wires the HTTP routes onto the repositories and the auth core.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storyhub/internal/auth"
	"storyhub/internal/bookmark"
	"storyhub/internal/comment"
	"storyhub/internal/live"
	"storyhub/internal/logging"
	"storyhub/internal/story"
	"storyhub/internal/upload"
	"storyhub/internal/user"
)

// Deps are the collaborators a Server needs. Uploads and Hub may be nil, in
// which case avatar upload and the live feed are not routed.
type Deps struct {
	Users     *user.Service
	Stories   *story.Repo
	Comments  *comment.Repo
	Bookmarks *bookmark.Repo
	Issuer    *auth.Issuer
	Policy    auth.Policy
	Uploads   *upload.Store
	Hub       *live.Hub
	Logger    *zap.SugaredLogger
}

type Server struct {
	users     *user.Service
	stories   *story.Repo
	comments  *comment.Repo
	bookmarks *bookmark.Repo
	issuer    *auth.Issuer
	policy    auth.Policy
	uploads   *upload.Store
	hub       *live.Hub
	log       *zap.SugaredLogger
}

func New(d Deps) *Server {
	registerValidation()
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		users:     d.Users,
		stories:   d.Stories,
		comments:  d.Comments,
		bookmarks: d.Bookmarks,
		issuer:    d.Issuer,
		policy:    d.Policy,
		uploads:   d.Uploads,
		hub:       d.Hub,
		log:       logger,
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(logging.RequestLogger(s.log), logging.Recovery(s.log))

	requireUser := auth.RequireUser(s.issuer)
	requireAdmin := auth.RequireAdmin(s.issuer)
	optionalUser := auth.OptionalUser(s.issuer)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	api := r.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	users := api.Group("/users")
	users.GET("/me", requireUser, s.me)
	users.PUT("/me", requireUser, s.updateMe)
	users.GET("/:userId", optionalUser, s.getUser)
	users.DELETE("/:userId", requireUser, s.deleteUser)
	users.GET("/:userId/stories", s.userStories)
	users.GET("/:userId/bookmarks", requireUser, s.userBookmarks)
	users.POST("/:userId/bookmarks", requireUser, s.createUserBookmark)
	users.DELETE("/:userId/bookmarks/:bookmarkId", requireUser, s.deleteUserBookmark)
	if s.uploads != nil {
		users.POST("/:userId/avatar", requireUser, s.uploadAvatar)
		r.Static(s.uploads.URLPrefix, s.uploads.Dir)
	}

	stories := api.Group("/stories")
	stories.GET("", optionalUser, s.listStories)
	stories.POST("", requireUser, s.createStory)
	stories.GET("/:storyId", optionalUser, s.getStory)
	stories.PUT("/:storyId", requireUser, s.updateStory)
	stories.DELETE("/:storyId", requireUser, s.deleteStory)
	stories.GET("/:storyId/comments", s.storyComments)
	stories.POST("/:storyId/comments", requireUser, s.createComment)
	stories.GET("/:storyId/bookmarks", s.storyBookmarks)
	stories.POST("/:storyId/bookmarks", requireUser, s.createStoryBookmark)
	stories.DELETE("/:storyId/bookmarks", requireUser, s.deleteStoryBookmark)

	api.GET("/comments", requireAdmin, s.allComments)
	api.DELETE("/comments/:commentId", requireUser, s.deleteComment)

	api.POST("/admin/announcements", requireAdmin, s.announce)
	if s.hub != nil {
		api.GET("/live", live.Handler(s.hub))
	}
	return r
}
