package repository

import (
	"database/sql"
)

// Key prefix for per-comment idempotency markers.
const processedCommentPrefix = "processed_comment_"

type SettingsRepositoryInterface interface {
	Get(key string) (string, error)
	Set(key, value string) error
	ProcessedCommentStatus(commentID string) (string, error)
	MarkCommentProcessed(commentID, status string) error
}

// SettingsRepository is a generic key/value store. It also backs the
// per-comment idempotency markers shared by the webhook and polling paths.
type SettingsRepository struct {
	DB *sql.DB
}

// Get returns the stored value or "" when the key does not exist.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.DB.QueryRow(`SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.DB.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

// ProcessedCommentStatus returns the marker status for a comment, or ""
// when the comment has never been visited.
func (r *SettingsRepository) ProcessedCommentStatus(commentID string) (string, error) {
	return r.Get(processedCommentPrefix + commentID)
}

func (r *SettingsRepository) MarkCommentProcessed(commentID, status string) error {
	return r.Set(processedCommentPrefix+commentID, status)
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
