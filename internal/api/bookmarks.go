package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storyhub/internal/apperr"
)

var errStoryMismatch = apperr.New(apperr.Validation, "storyId does not match path")

func (s *Server) storyBookmarks(c *gin.Context) {
	id, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := s.stories.Get(ctx, id); err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.bookmarks.ListByStory(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	count, err := s.bookmarks.CountByStory(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarks": list, "count": count})
}

type storyBookmarkRequest struct {
	UserID  int64 `json:"userId" binding:"required,gt=0"`
	StoryID int64 `json:"storyId"`
}

// createStoryBookmark bookmarks :storyId for the body's userId, which must
// be the caller unless the caller is an admin.
func (s *Server) createStoryBookmark(c *gin.Context) {
	storyID, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req storyBookmarkRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.StoryID != 0 && req.StoryID != storyID {
		s.fail(c, errStoryMismatch)
		return
	}
	if err := s.policy.CanActAs(caller(c), req.UserID); err != nil {
		s.fail(c, err)
		return
	}
	b, err := s.bookmarks.Create(c.Request.Context(), req.UserID, storyID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// deleteStoryBookmark removes the caller's own bookmark of :storyId.
func (s *Server) deleteStoryBookmark(c *gin.Context) {
	storyID, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.bookmarks.DeleteByUserStory(c.Request.Context(), caller(c).UserID, storyID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) userBookmarks(c *gin.Context) {
	u, err := s.targetUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.bookmarks.ListByUser(c.Request.Context(), u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type userBookmarkRequest struct {
	StoryID int64 `json:"storyId" binding:"required,gt=0"`
}

func (s *Server) createUserBookmark(c *gin.Context) {
	u, err := s.targetUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req userBookmarkRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	b, err := s.bookmarks.Create(c.Request.Context(), u.ID, req.StoryID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (s *Server) deleteUserBookmark(c *gin.Context) {
	u, err := s.targetUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	id, err := pathID(c, "bookmarkId")
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	b, err := s.bookmarks.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	// A bookmark reached through another user's path does not exist there.
	if b.UserID != u.ID {
		s.fail(c, apperr.New(apperr.NotFound, "bookmark not found"))
		return
	}
	if err := s.bookmarks.Delete(ctx, b.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
