package story

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"storyhub/pkg/database"
	"storyhub/pkg/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

const selectStories = `
SELECT s.id, s.title, s.summary, s.content, s.genre, s.author_id, s.created_at, s.updated_at,
       u.username AS author_username, u.avatar AS author_avatar,
       (SELECT COUNT(*) FROM comments c WHERE c.story_id = s.id) AS comment_count
FROM stories s
JOIN users u ON u.id = s.author_id`

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type row struct {
	models.Story
	AuthorUsername string  `db:"author_username"`
	AuthorAvatar   *string `db:"author_avatar"`
}

func (r row) story() models.Story {
	s := r.Story
	s.Author = &models.Author{ID: s.AuthorID, Username: r.AuthorUsername, Avatar: r.AuthorAvatar}
	return s
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	Genre    string
	Query    string
	AuthorID int64
	Limit    int
	Offset   int
}

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// List returns stories newest first, each with its author and comment count.
func (r *Repo) List(ctx context.Context, f Filter) ([]models.Story, error) {
	f = f.normalized()
	q := selectStories + ` WHERE 1=1`
	args := []any{}

	if f.Genre != "" {
		q += " AND s.genre = ? COLLATE NOCASE"
		args = append(args, f.Genre)
	}
	if f.Query != "" {
		like := "%" + likeEscaper.Replace(strings.TrimSpace(f.Query)) + "%"
		q += ` AND (s.title LIKE ? ESCAPE '\' OR s.summary LIKE ? ESCAPE '\')`
		args = append(args, like, like)
	}
	if f.AuthorID > 0 {
		q += " AND s.author_id = ?"
		args = append(args, f.AuthorID)
	}
	q += " ORDER BY s.id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, database.Classify(err)
	}
	out := make([]models.Story, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.story())
	}
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Story, error) {
	var rw row
	if err := r.db.GetContext(ctx, &rw, selectStories+` WHERE s.id = ?`, id); err != nil {
		return nil, database.Classify(err)
	}
	s := rw.story()
	return &s, nil
}

// Create inserts s; an unknown author is database.ErrReference.
func (r *Repo) Create(ctx context.Context, s *models.Story) (*models.Story, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stories (title, summary, content, genre, author_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
		s.Title, s.Summary, s.Content, s.Genre, s.AuthorID, now, now)
	if err != nil {
		return nil, database.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, database.Classify(err)
	}
	return r.Get(ctx, id)
}

// Update carries the editable story fields. Nil fields are left untouched;
// genre and author are fixed at creation.
type Update struct {
	Title   *string
	Summary *string
	Content *string
}

func (r *Repo) Update(ctx context.Context, id int64, u Update) (*models.Story, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *u.Summary)
	}
	if u.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *u.Content)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE stories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, database.Classify(err)
	}
	if err := database.RequireAffected(res); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}
