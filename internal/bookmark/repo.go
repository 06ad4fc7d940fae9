package bookmark

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"storyhub/pkg/database"
	"storyhub/pkg/models"
)

const bookmarkColumns = `id, user_id, story_id, created_at`

type storyRow struct {
	models.Bookmark
	StoryTitle     string    `db:"story_title"`
	StorySummary   *string   `db:"story_summary"`
	StoryGenre     string    `db:"story_genre"`
	StoryAuthorID  int64     `db:"story_author_id"`
	StoryCreatedAt time.Time `db:"story_created_at"`
	AuthorUsername string    `db:"author_username"`
}

func (r storyRow) bookmark() models.Bookmark {
	b := r.Bookmark
	b.Story = &models.Story{
		ID:        b.StoryID,
		Title:     r.StoryTitle,
		Summary:   r.StorySummary,
		Genre:     r.StoryGenre,
		AuthorID:  r.StoryAuthorID,
		CreatedAt: r.StoryCreatedAt,
		Author:    &models.Author{ID: r.StoryAuthorID, Username: r.AuthorUsername},
	}
	return b
}

type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// Create records that userID bookmarked storyID. A second bookmark of the same
// story by the same user is database.ErrConflict; the unique index decides
// races, so there is no read-before-write.
func (r *Repo) Create(ctx context.Context, userID, storyID int64) (*models.Bookmark, error) {
	b := &models.Bookmark{UserID: userID, StoryID: storyID, CreatedAt: time.Now().UTC()}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, story_id, created_at) VALUES (?,?,?)`,
		b.UserID, b.StoryID, b.CreatedAt)
	if err != nil {
		return nil, database.Classify(err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, database.Classify(err)
	}
	return b, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ?`, id); err != nil {
		return nil, database.Classify(err)
	}
	return &b, nil
}

// ListByUser returns the user's bookmarks newest first with the story summary
// attached.
func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	var rows []storyRow
	err := r.db.SelectContext(ctx, &rows, `
SELECT b.id, b.user_id, b.story_id, b.created_at,
       s.title AS story_title, s.summary AS story_summary, s.genre AS story_genre,
       s.author_id AS story_author_id, s.created_at AS story_created_at,
       u.username AS author_username
FROM bookmarks b
JOIN stories s ON s.id = b.story_id
JOIN users u ON u.id = s.author_id
WHERE b.user_id = ?
ORDER BY b.id DESC`, userID)
	if err != nil {
		return nil, database.Classify(err)
	}
	out := make([]models.Bookmark, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.bookmark())
	}
	return out, nil
}

func (r *Repo) ListByStory(ctx context.Context, storyID int64) ([]models.Bookmark, error) {
	out := []models.Bookmark{}
	if err := r.db.SelectContext(ctx, &out, `SELECT `+bookmarkColumns+` FROM bookmarks WHERE story_id = ? ORDER BY id`, storyID); err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}

func (r *Repo) CountByStory(ctx context.Context, storyID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookmarks WHERE story_id = ?`, storyID); err != nil {
		return 0, database.Classify(err)
	}
	return n, nil
}

func (r *Repo) Exists(ctx context.Context, userID, storyID int64) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, `SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = ? AND story_id = ?)`, userID, storyID); err != nil {
		return false, database.Classify(err)
	}
	return ok, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}

func (r *Repo) DeleteByUserStory(ctx context.Context, userID, storyID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = ? AND story_id = ?`, userID, storyID)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}
