package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storyhub/internal/apperr"
	"storyhub/pkg/database"
	"storyhub/pkg/database/dbtest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewRepo(dbtest.New(t))).WithCost(bcrypt.MinCost)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Username: " ana ", Email: "Ana@Example.com", Password: "hunter22", Bio: "writes"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
	assert.False(t, u.IsAdmin)

	got, err := svc.Login(ctx, "ANA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "writes", got.Bio)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(ctx, "ghost@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Equal(t, apperr.Unauthorized, apperr.KindOf(err))
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Username: "ana", Email: "other@example.com", Password: "pw"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	_, err = svc.Register(ctx, Registration{Username: "ana2", Email: "ANA@example.com", Password: "pw"})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	name, bio := "ana_b", "new bio"
	got, err := svc.Repo().UpdateProfile(ctx, u.ID, ProfileUpdate{Username: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "ana_b", got.Username)
	assert.Equal(t, "new bio", got.Bio)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Nil(t, got.Avatar)

	unchanged, err := svc.Repo().UpdateProfile(ctx, u.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "ana_b", unchanged.Username)

	_, err = svc.Repo().UpdateProfile(ctx, 999, ProfileUpdate{Bio: &bio})
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestUpdateProfile_UsernameTaken(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	bo, err := svc.Register(ctx, Registration{Username: "bo", Email: "bo@example.com", Password: "pw"})
	require.NoError(t, err)

	taken := "ana"
	_, err = svc.Repo().UpdateProfile(ctx, bo.ID, ProfileUpdate{Username: &taken})
	assert.True(t, errors.Is(err, database.ErrConflict))
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.Repo().Delete(ctx, u.ID))
	_, err = svc.Repo().GetByID(ctx, u.ID)
	assert.True(t, errors.Is(err, database.ErrNotFound))
	assert.True(t, errors.Is(svc.Repo().Delete(ctx, u.ID), database.ErrNotFound))
}

func TestEnsureAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, created, err := svc.EnsureAdmin(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "root", admin.Username)

	again, created, err := svc.EnsureAdmin(ctx, "root@example.com", "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	u, err := svc.Login(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestEnsureAdmin_PromotesExistingUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, Registration{Username: "ana", Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	got, created, err := svc.EnsureAdmin(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, got.ID)

	stored, err := svc.Repo().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestRegister_BlankUsername(t *testing.T) {
	svc := newService(t)
	_, err := svc.Register(context.Background(), Registration{Username: "   ", Email: "ana@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrBlankUsername)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Repo().GetByEmail(context.Background(), "ana@example.com")
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestEnsureAdmin_UsernameTakenFallsBackToSuffix(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	regular, err := svc.Register(ctx, Registration{Username: "root", Email: "someone@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, Registration{Username: "root_admin", Email: "other@example.com", Password: "pw"})
	require.NoError(t, err)

	admin, created, err := svc.EnsureAdmin(ctx, "root@example.com", "rootpw")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, "root_admin2", admin.Username)

	stillRegular, err := svc.Repo().GetByID(ctx, regular.ID)
	require.NoError(t, err)
	assert.False(t, stillRegular.IsAdmin)
}
