package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storyhub/internal/live"
	"storyhub/internal/story"
	"storyhub/pkg/models"
)

func (s *Server) listStories(c *gin.Context) {
	limit, err := queryInt(c, "limit", story.DefaultLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	authorID, err := queryInt(c, "authorId", 0)
	if err != nil {
		s.fail(c, err)
		return
	}

	f := story.Filter{
		Genre:    c.Query("genre"),
		Query:    c.Query("q"),
		AuthorID: int64(authorID),
		Limit:    limit,
		Offset:   offset,
	}
	list, err := s.stories.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": list, "limit": limit, "offset": offset})
}

// getStory returns the story with its author and comment count, plus whether
// the caller has bookmarked it when a token is presented.
func (s *Server) getStory(c *gin.Context) {
	id, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	st, err := s.stories.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if claims := caller(c); claims != nil {
		marked, err := s.bookmarks.Exists(ctx, claims.UserID, st.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		st.Bookmarked = &marked
	}
	c.JSON(http.StatusOK, st)
}

type createStoryRequest struct {
	Title   string  `json:"title" binding:"required,max=200"`
	Summary *string `json:"summary" binding:"omitempty,max=1000"`
	Content string  `json:"content" binding:"required"`
	Genre   string  `json:"genre" binding:"required,max=50"`
}

func (s *Server) createStory(c *gin.Context) {
	var req createStoryRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	claims := caller(c)
	st, err := s.stories.Create(c.Request.Context(), &models.Story{
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Genre:    req.Genre,
		AuthorID: claims.UserID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.publish(models.ActivityEvent{
		Type:     live.EventStoryCreated,
		StoryID:  st.ID,
		UserID:   st.AuthorID,
		Username: st.Author.Username,
		Message:  st.Title,
	})
	c.JSON(http.StatusCreated, st)
}

// updateStoryRequest has no genre or author: those are fixed at creation.
type updateStoryRequest struct {
	Title   *string `json:"title" binding:"omitempty,min=1,max=200"`
	Summary *string `json:"summary" binding:"omitempty,max=1000"`
	Content *string `json:"content" binding:"omitempty,min=1"`
}

// ownedStory loads :storyId and checks the caller may modify it.
func (s *Server) ownedStory(c *gin.Context) (*models.Story, error) {
	id, err := pathID(c, "storyId")
	if err != nil {
		return nil, err
	}
	st, err := s.stories.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanModify(caller(c), st.AuthorID); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Server) updateStory(c *gin.Context) {
	st, err := s.ownedStory(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req updateStoryRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.stories.Update(c.Request.Context(), st.ID, story.Update{
		Title:   req.Title,
		Summary: req.Summary,
		Content: req.Content,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteStory(c *gin.Context) {
	st, err := s.ownedStory(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.stories.Delete(c.Request.Context(), st.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) publish(ev models.ActivityEvent) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ev)
}
