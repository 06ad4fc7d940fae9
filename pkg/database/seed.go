package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"storyhub/pkg/models"
)

func LoadStoriesFromJSON(jsonPath string) ([]models.SeedStory, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read seed json: %w", err)
	}

	var list []models.SeedStory
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("unmarshal seed json: %w", err)
	}

	return list, nil
}

// SeedStories inserts the given stories for authorID, skipping any title the
// author already has. Returns the number of stories inserted.
func SeedStories(ctx context.Context, db *sqlx.DB, authorID int64, list []models.SeedStory) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO stories (title, summary, content, genre, author_id, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM stories WHERE author_id = ? AND title = ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert story: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for _, s := range list {
		if s.Title == "" || s.Content == "" || s.Genre == "" {
			return 0, fmt.Errorf("seed story %q: title, content and genre are required", s.Title)
		}
		var summary *string
		if s.Summary != "" {
			summary = &s.Summary
		}

		res, err := stmt.ExecContext(ctx, s.Title, summary, s.Content, s.Genre, authorID, now, now, authorID, s.Title)
		if err != nil {
			return 0, fmt.Errorf("insert story %q: %w", s.Title, err)
		}

		aff, _ := res.RowsAffected()
		if aff > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
