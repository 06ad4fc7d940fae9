package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storyhub/internal/auth"
	"storyhub/internal/story"
	"storyhub/internal/upload"
	"storyhub/internal/user"
	"storyhub/pkg/models"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Bio      string `json:"bio" binding:"max=500"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *Server) issue(u *models.User) (*authResponse, error) {
	token, claims, err := s.issuer.Issue(auth.Identity{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
	if err != nil {
		return nil, err
	}
	return &authResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.users.Register(c.Request.Context(), user.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.issue(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp, err := s.issue(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) me(c *gin.Context) {
	u, err := s.users.Repo().GetByID(c.Request.Context(), caller(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type updateMeRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=50"`
	Bio      *string `json:"bio" binding:"omitempty,max=500"`
}

// updateMe changes the caller's own profile. Avatars go through the upload
// route and email is fixed.
func (s *Server) updateMe(c *gin.Context) {
	var req updateMeRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.Username != nil {
		name, err := user.NormalizeUsername(*req.Username)
		if err != nil {
			s.fail(c, err)
			return
		}
		req.Username = &name
	}
	u, err := s.users.Repo().UpdateProfile(c.Request.Context(), caller(c).UserID, user.ProfileUpdate{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// getUser returns the full account to its owner or an admin and the public
// profile to everyone else.
func (s *Server) getUser(c *gin.Context) {
	id, err := pathID(c, "userId")
	if err != nil {
		s.fail(c, err)
		return
	}
	u, err := s.users.Repo().GetByID(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if claims := caller(c); claims != nil && s.policy.CanActAs(claims, u.ID) == nil {
		c.JSON(http.StatusOK, u)
		return
	}
	c.JSON(http.StatusOK, u.Profile())
}

// targetUser resolves :userId for routes that act on an account: the user
// must exist and the caller must be that user or an admin.
func (s *Server) targetUser(c *gin.Context) (*models.User, error) {
	id, err := pathID(c, "userId")
	if err != nil {
		return nil, err
	}
	u, err := s.users.Repo().GetByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanActAs(caller(c), u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Server) deleteUser(c *gin.Context) {
	u, err := s.targetUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.users.Repo().Delete(c.Request.Context(), u.ID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) userStories(c *gin.Context) {
	id, err := pathID(c, "userId")
	if err != nil {
		s.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := s.users.Repo().GetByID(ctx, id); err != nil {
		s.fail(c, err)
		return
	}
	list, err := s.stories.List(ctx, story.Filter{AuthorID: id, Limit: story.MaxLimit})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) uploadAvatar(c *gin.Context) {
	u, err := s.targetUser(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.uploads.MaxBytes+(1<<20))
	fh, err := c.FormFile("avatar")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(c, upload.ErrTooLarge)
			return
		}
		s.fail(c, errAvatarRequired)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	path, err := s.uploads.Save(fmt.Sprintf("user-%d", u.ID), fh.Filename, f)
	if err != nil {
		s.fail(c, err)
		return
	}
	updated, err := s.users.Repo().SetAvatar(c.Request.Context(), u.ID, path)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
