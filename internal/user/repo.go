package user

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"storyhub/pkg/database"
	"storyhub/pkg/models"
)

const userColumns = `id, username, email, password_hash, bio, is_admin, avatar, created_at`

type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// Create inserts u and fills in its id and creation time. A taken username
// or email is database.ErrConflict.
func (r *Repo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	u.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, bio, is_admin, avatar, created_at) VALUES (?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, u.Bio, u.IsAdmin, u.Avatar, u.CreatedAt)
	if err != nil {
		return nil, database.Classify(err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, database.Classify(err)
	}
	return u, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, database.Classify(err)
	}
	return &u, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)); err != nil {
		return nil, database.Classify(err)
	}
	return &u, nil
}

// ProfileUpdate holds the only user fields that may change after
// registration. Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string
	Bio      *string
	Avatar   *string
}

func (p ProfileUpdate) empty() bool {
	return p.Username == nil && p.Bio == nil && p.Avatar == nil
}

func (r *Repo) UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) (*models.User, error) {
	if p.empty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{}
	args := []any{}
	if p.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *p.Username)
	}
	if p.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *p.Bio)
	}
	if p.Avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *p.Avatar)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, database.Classify(err)
	}
	if err := database.RequireAffected(res); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetAvatar stores the public path of a freshly uploaded avatar.
func (r *Repo) SetAvatar(ctx context.Context, id int64, path string) (*models.User, error) {
	return r.UpdateProfile(ctx, id, ProfileUpdate{Avatar: &path})
}

func (r *Repo) SetAdmin(ctx context.Context, id int64, admin bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE id = ?`, admin, id)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}

// Delete removes the user; stories, comments and bookmarks go with it.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return database.Classify(err)
	}
	return database.RequireAffected(res)
}
