package models

import "time"

// users table
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Bio          string    `json:"bio" db:"bio"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	Avatar       *string   `json:"avatar,omitempty" db:"avatar"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Author is the public projection of a user embedded in stories and comments.
type Author struct {
	ID       int64   `json:"id" db:"id"`
	Username string  `json:"username" db:"username"`
	Avatar   *string `json:"avatar,omitempty" db:"avatar"`
}

// Profile is what anyone may read about an account: no email, no role.
type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Avatar    *string   `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, Bio: u.Bio, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
}

// stories table
type Story struct {
	ID        int64     `json:"storyId" db:"id"`
	Title     string    `json:"title" db:"title"`
	Summary   *string   `json:"summary,omitempty" db:"summary"`
	Content   string    `json:"content" db:"content"`
	Genre     string    `json:"genre" db:"genre"`
	AuthorID  int64     `json:"authorId" db:"author_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Author       *Author `json:"author,omitempty" db:"-"`
	CommentCount int     `json:"commentCount" db:"comment_count"`
	Bookmarked   *bool   `json:"bookmarked,omitempty" db:"-"`
}

// comments table
type Comment struct {
	ID        int64     `json:"commentId" db:"id"`
	Content   string    `json:"content" db:"content"`
	UserID    int64     `json:"userId" db:"user_id"`
	StoryID   int64     `json:"storyId" db:"story_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Author *Author `json:"author,omitempty" db:"-"`
}

// bookmarks table, unique on (user_id, story_id)
type Bookmark struct {
	ID        int64     `json:"bookmarkId" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	StoryID   int64     `json:"storyId" db:"story_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Story *Story `json:"story,omitempty" db:"-"`
}

// seed file format
type SeedStory struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
	Genre   string `json:"genre"`
}

// live feed event pushed to websocket subscribers
type ActivityEvent struct {
	Type      string `json:"type"`
	StoryID   int64  `json:"storyId,omitempty"`
	UserID    int64  `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
