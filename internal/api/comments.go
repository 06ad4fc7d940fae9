package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storyhub/internal/live"
	"storyhub/pkg/models"
)

func (s *Server) storyComments(c *gin.Context) {
	id, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.comments.ListByStory(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

func (s *Server) createComment(c *gin.Context) {
	storyID, err := pathID(c, "storyId")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req createCommentRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	cm, err := s.comments.Create(c.Request.Context(), &models.Comment{
		Content: req.Content,
		UserID:  caller(c).UserID,
		StoryID: storyID,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.publish(models.ActivityEvent{
		Type:     live.EventCommentCreated,
		StoryID:  cm.StoryID,
		UserID:   cm.UserID,
		Username: cm.Author.Username,
	})
	c.JSON(http.StatusCreated, cm)
}

// allComments is the admin moderation listing.
func (s *Server) allComments(c *gin.Context) {
	list, err := s.comments.ListAll(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) deleteComment(c *gin.Context) {
	id, err := pathID(c, "commentId")
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	cm, err := s.comments.Get(ctx, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.policy.CanModify(caller(c), cm.UserID); err != nil {
		s.fail(c, err)
		return
	}
	if err := s.comments.Delete(ctx, cm.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type announcementRequest struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// announce pushes an admin message to every live subscriber.
func (s *Server) announce(c *gin.Context) {
	var req announcementRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	claims := caller(c)
	delivered := false
	if s.hub != nil {
		delivered = s.hub.Publish(models.ActivityEvent{
			Type:    live.EventAnnouncement,
			UserID:  claims.UserID,
			Message: req.Message,
		})
	}
	s.log.Infow("announcement", "user_id", claims.UserID, "queued", delivered)
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "queued": delivered})
}
