package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storyhub/pkg/models"
)

type StoryQuery struct {
	Genre    string
	Q        string
	AuthorID int64
	Limit    int
	Offset   int
}

func (q StoryQuery) encode() string {
	v := url.Values{}
	if q.Genre != "" {
		v.Set("genre", q.Genre)
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.AuthorID > 0 {
		v.Set("authorId", strconv.FormatInt(q.AuthorID, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListStories(ctx context.Context, q StoryQuery) ([]models.Story, error) {
	var page struct {
		Stories []models.Story `json:"stories"`
	}
	if err := c.Do(ctx, http.MethodGet, "/api/stories"+q.encode(), nil, &page); err != nil {
		return nil, err
	}
	return page.Stories, nil
}

func (c *Client) GetStory(ctx context.Context, id int64) (*models.Story, error) {
	var s models.Story
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/stories/%d", id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type NewStory struct {
	Title   string  `json:"title"`
	Summary *string `json:"summary,omitempty"`
	Content string  `json:"content"`
	Genre   string  `json:"genre"`
}

func (c *Client) CreateStory(ctx context.Context, in NewStory) (*models.Story, error) {
	var s models.Story
	if err := c.Do(ctx, http.MethodPost, "/api/stories", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) DeleteStory(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/stories/%d", id), nil, nil)
}

func (c *Client) AddComment(ctx context.Context, storyID int64, content string) (*models.Comment, error) {
	var cm models.Comment
	body := map[string]string{"content": content}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/stories/%d/comments", storyID), body, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// Bookmark bookmarks storyID for the logged-in user.
func (c *Client) Bookmark(ctx context.Context, storyID int64) (*models.Bookmark, error) {
	s := c.Session()
	if s == nil || s.User == nil {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	var b models.Bookmark
	body := map[string]int64{"userId": s.User.ID, "storyId": storyID}
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/stories/%d/bookmarks", storyID), body, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) RemoveBookmark(ctx context.Context, storyID int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/stories/%d/bookmarks", storyID), nil, nil)
}
