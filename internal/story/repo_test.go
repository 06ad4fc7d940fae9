package story

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyhub/internal/apperr"
	"storyhub/pkg/database"
	"storyhub/pkg/database/dbtest"
	"storyhub/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestCreateAndGet(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepo(db)
	ctx := context.Background()
	author := dbtest.InsertUser(t, db, "ana", false)

	s, err := repo.Create(ctx, &models.Story{Title: "A", Content: "B", Genre: "Fantasy", Summary: strPtr("short"), AuthorID: author})
	require.NoError(t, err)
	assert.NotZero(t, s.ID)
	require.NotNil(t, s.Author)
	assert.Equal(t, "ana", s.Author.Username)
	assert.Equal(t, author, s.Author.ID)
	assert.Equal(t, 0, s.CommentCount)
	require.NotNil(t, s.Summary)
	assert.Equal(t, "short", *s.Summary)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "Fantasy", got.Genre)
}

func TestCreate_UnknownAuthor(t *testing.T) {
	repo := NewRepo(dbtest.New(t))
	_, err := repo.Create(context.Background(), &models.Story{Title: "A", Content: "B", Genre: "x", AuthorID: 42})
	assert.True(t, errors.Is(err, database.ErrReference))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestGet_Missing(t *testing.T) {
	repo := NewRepo(dbtest.New(t))
	_, err := repo.Get(context.Background(), 999999)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestList_Filters(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepo(db)
	ctx := context.Background()
	ana := dbtest.InsertUser(t, db, "ana", false)
	bo := dbtest.InsertUser(t, db, "bo", false)

	dragons := dbtest.InsertStory(t, db, ana, "Dragons", "Fantasy")
	dbtest.InsertStory(t, db, ana, "Robots", "SciFi")
	dbtest.InsertStory(t, db, bo, "More Dragons", "fantasy")
	_, err := db.Exec(`INSERT INTO comments (content, user_id, story_id) VALUES ('nice', ?, ?), ('great', ?, ?)`, bo, dragons, ana, dragons)
	require.NoError(t, err)

	all, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "More Dragons", all[0].Title)
	assert.Equal(t, 2, all[2].CommentCount)

	fantasy, err := repo.List(ctx, Filter{Genre: "FANTASY"})
	require.NoError(t, err)
	assert.Len(t, fantasy, 2)

	byQuery, err := repo.List(ctx, Filter{Query: "drag"})
	require.NoError(t, err)
	assert.Len(t, byQuery, 2)

	byAuthor, err := repo.List(ctx, Filter{AuthorID: bo})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "bo", byAuthor[0].Author.Username)

	page, err := repo.List(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Robots", page[0].Title)
}

func TestList_Empty(t *testing.T) {
	got, err := NewRepo(dbtest.New(t)).List(context.Background(), Filter{Limit: 1000})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterNormalized(t *testing.T) {
	assert.Equal(t, DefaultLimit, Filter{}.normalized().Limit)
	assert.Equal(t, MaxLimit, Filter{Limit: 5000}.normalized().Limit)
	assert.Equal(t, 0, Filter{Offset: -3}.normalized().Offset)
}

func TestUpdate_KeepsAuthorAndGenre(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepo(db)
	ctx := context.Background()
	author := dbtest.InsertUser(t, db, "ana", false)
	id := dbtest.InsertStory(t, db, author, "Old", "Horror")

	got, err := repo.Update(ctx, id, Update{Title: strPtr("New"), Summary: strPtr("sum")})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "once upon a time", got.Content)
	assert.Equal(t, "Horror", got.Genre)
	assert.Equal(t, author, got.AuthorID)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = repo.Update(ctx, 999999, Update{Title: strPtr("x")})
	assert.True(t, errors.Is(err, database.ErrNotFound))
}

func TestDelete(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepo(db)
	ctx := context.Background()
	id := dbtest.InsertStory(t, db, dbtest.InsertUser(t, db, "ana", false), "A", "x")

	require.NoError(t, repo.Delete(ctx, id))
	assert.True(t, errors.Is(repo.Delete(ctx, id), database.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, 999999), database.ErrNotFound))
}

func TestList_QueryMatchesWildcardsLiterally(t *testing.T) {
	db := dbtest.New(t)
	repo := NewRepo(db)
	ctx := context.Background()
	ana := dbtest.InsertUser(t, db, "ana", false)
	dbtest.InsertStory(t, db, ana, "100% true", "x")
	dbtest.InsertStory(t, db, ana, "snake_case tales", "x")
	dbtest.InsertStory(t, db, ana, "plain", "x")

	pct, err := repo.List(ctx, Filter{Query: "%"})
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "100% true", pct[0].Title)

	under, err := repo.List(ctx, Filter{Query: "_"})
	require.NoError(t, err)
	require.Len(t, under, 1)
	assert.Equal(t, "snake_case tales", under[0].Title)

	none, err := repo.List(ctx, Filter{Query: `\`})
	require.NoError(t, err)
	assert.Empty(t, none)
}
