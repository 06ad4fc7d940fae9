package comment

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storyhub/pkg/database"
	"storyhub/pkg/models"
)

const selectComments = `
SELECT c.id, c.content, c.user_id, c.story_id, c.created_at,
       u.username AS author_username, u.avatar AS author_avatar
FROM comments c
JOIN users u ON u.id = c.user_id`

type row struct {
	models.Comment
	AuthorUsername string  `db:"author_username"`
	AuthorAvatar   *string `db:"author_avatar"`
}

func collect(rows []row) []models.Comment {
	out := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		c := r.Comment
		c.Author = &models.Author{ID: c.UserID, Username: r.AuthorUsername, Avatar: r.AuthorAvatar}
		out = append(out, c)
	}
	return out
}

type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// ListByStory returns a story's comments oldest first. A missing story is
// database.ErrNotFound rather than an empty list.
func (r *Repo) ListByStory(ctx context.Context, storyID int64) ([]models.Comment, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM stories WHERE id = ?)`, storyID); err != nil {
		return nil, database.Classify(err)
	}
	if !exists {
		return nil, database.ErrNotFound
	}

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, selectComments+` WHERE c.story_id = ? ORDER BY c.id`, storyID); err != nil {
		return nil, database.Classify(err)
	}
	return collect(rows), nil
}

// ListAll is the moderation view: every comment, newest first.
func (r *Repo) ListAll(ctx context.Context) ([]models.Comment, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, selectComments+` ORDER BY c.id DESC`); err != nil {
		return nil, database.Classify(err)
	}
	return collect(rows), nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Comment, error) {
	var rw row
	if err := r.db.GetContext(ctx, &rw, selectComments+` WHERE c.id = ?`, id); err != nil {
		return nil, database.Classify(err)
	}
	c := collect([]row{rw})[0]
	return &c, nil
}

// Create inserts c; an unknown story or user is database.ErrReference.
func (r *Repo) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (content, user_id, story_id, created_at) VALUES (?,?,?,?)`,
		c.Content, c.UserID, c.StoryID, time.Now().UTC())
	if err != nil {
		return nil, database.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, database.Classify(err)
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}
