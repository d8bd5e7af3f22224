// Package project provides the lesson project domain model and repository.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository defines operations for managing projects.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindByUser(ctx context.Context, userID string) ([]Project, error)
	FindByStatus(ctx context.Context, status string) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	SetFavorite(ctx context.Context, id string, favorite bool) error
	Delete(ctx context.Context, id string) error
}

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db *sqlx.DB
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// Create inserts a new project. Timestamps are set by the database.
func (r *DBRepository) Create(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects
			(id, user_id, title, source_url, script, vocabulary, grammar, practice_sentences,
			detected_language, vocabulary_count, grammar_count, favorite, status, job_id, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.SourceURL, p.Script, p.Vocabulary, p.Grammar, p.Sentences,
		p.DetectedLanguage, p.VocabularyCount, p.GrammarCount, p.Favorite, p.Status, p.JobID, p.ErrorMessage)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert project) > %w", err)
	}
	return nil
}

// FindByID returns a project by id, or nil if not found. A successful read
// also records the access time so recently opened lessons sort first.
func (r *DBRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.GetContext(ctx, &p, "SELECT * FROM projects WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(project) > %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE projects SET last_accessed_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("db.ExecContext(touch project) > %w", err)
	}
	return &p, nil
}

// FindByUser returns all of a user's projects, most recently accessed first.
func (r *DBRepository) FindByUser(ctx context.Context, userID string) ([]Project, error) {
	var projects []Project
	if err := r.db.SelectContext(ctx, &projects,
		"SELECT * FROM projects WHERE user_id = ? ORDER BY last_accessed_at DESC",
		userID); err != nil {
		return nil, fmt.Errorf("db.SelectContext(projects by user) > %w", err)
	}
	return projects, nil
}

// FindByStatus returns all projects in the given status, oldest first, so a
// restart can resume watching in-flight jobs in submission order.
func (r *DBRepository) FindByStatus(ctx context.Context, status string) ([]Project, error) {
	var projects []Project
	if err := r.db.SelectContext(ctx, &projects,
		"SELECT * FROM projects WHERE status = ? ORDER BY created_at",
		status); err != nil {
		return nil, fmt.Errorf("db.SelectContext(projects by status) > %w", err)
	}
	return projects, nil
}

// Update rewrites a project's mutable fields.
func (r *DBRepository) Update(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects SET
			title = ?, script = ?, vocabulary = ?, grammar = ?, practice_sentences = ?,
			detected_language = ?, vocabulary_count = ?, grammar_count = ?,
			favorite = ?, status = ?, job_id = ?, error_message = ?
		WHERE id = ?`,
		p.Title, p.Script, p.Vocabulary, p.Grammar, p.Sentences,
		p.DetectedLanguage, p.VocabularyCount, p.GrammarCount,
		p.Favorite, p.Status, p.JobID, p.ErrorMessage,
		p.ID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update project) > %w", err)
	}
	// MySQL reports zero affected rows for no-op updates, so row counts only
	// distinguish missing projects on deletes.
	return nil
}

// SetFavorite flips the favorite flag.
func (r *DBRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE projects SET favorite = ? WHERE id = ?", favorite, id); err != nil {
		return fmt.Errorf("db.ExecContext(set favorite) > %w", err)
	}
	return nil
}

// Delete removes a project.
func (r *DBRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("db.ExecContext(delete project) > %w", err)
	}
	return requireOneRow(result, id)
}

// ErrNotFound is returned by writes that matched no project.
var ErrNotFound = errors.New("project not found")

func requireOneRow(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}
