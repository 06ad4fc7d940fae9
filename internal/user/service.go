package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storyhub/internal/apperr"
	"storyhub/pkg/database"
	"storyhub/pkg/models"
)

var (
	ErrBadCredentials = apperr.New(apperr.Unauthorized, "invalid credentials")
	ErrBlankUsername  = apperr.New(apperr.Validation, "username is required")
)

// adminNameAttempts bounds the suffixes EnsureAdmin tries when the email's
// local part is already taken as a username.
const adminNameAttempts = 5

// NormalizeUsername trims surrounding whitespace and rejects names that are
// blank afterwards.
func NormalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankUsername
	}
	return name, nil
}

type Service struct {
	repo *Repo
	cost int
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	cp := *s
	cp.cost = cost
	return &cp
}

func (s *Service) Repo() *Repo { return s.repo }

type Registration struct {
	Username string
	Email    string
	Password string
	Bio      string
}

func (s *Service) Register(ctx context.Context, in Registration) (*models.User, error) {
	username, err := NormalizeUsername(in.Username)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Bio:          in.Bio,
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, apperr.Wrap(apperr.Conflict, "username or email already registered", err)
		}
		return nil, err
	}
	return created, nil
}

// Login returns the same error for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// EnsureAdmin makes sure an admin account exists for email, creating it with
// password when missing. Reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	switch {
	case err == nil:
		if !u.IsAdmin {
			if err := s.repo.SetAdmin(ctx, u.ID, true); err != nil {
				return nil, false, err
			}
			u.IsAdmin = true
		}
		return u, false, nil
	case !errors.Is(err, database.ErrNotFound):
		return nil, false, err
	}

	base, _, _ := strings.Cut(email, "@")
	u, err = s.registerAdmin(ctx, base, email, password)
	if err != nil {
		return nil, false, err
	}
	if err := s.repo.SetAdmin(ctx, u.ID, true); err != nil {
		return nil, false, err
	}
	u.IsAdmin = true
	return u, true, nil
}

// registerAdmin registers the bootstrap account under base, or base_admin,
// base_admin2... when a regular user already holds the name.
func (s *Service) registerAdmin(ctx context.Context, base, email, password string) (*models.User, error) {
	name := base
	for i := 0; i < adminNameAttempts; i++ {
		switch i {
		case 0:
		case 1:
			name = base + "_admin"
		default:
			name = fmt.Sprintf("%s_admin%d", base, i)
		}
		u, err := s.Register(ctx, Registration{Username: name, Email: email, Password: password})
		if err == nil {
			return u, nil
		}
		if apperr.KindOf(err) != apperr.Conflict {
			return nil, err
		}
		if _, lookupErr := s.repo.GetByEmail(ctx, strings.ToLower(email)); lookupErr == nil {
			return nil, err
		}
	}
	return nil, apperr.New(apperr.Conflict, fmt.Sprintf("no free username for admin %s (tried %s and %d suffixes)", email, base, adminNameAttempts-1))
}
