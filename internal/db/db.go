// internal/db/db.go
package db

import (
	"database/sql"
	"sync"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// DB wraps the sql pool with lazy, memoized schema initialization:
// concurrent callers of EnsureSchema share a single initialization run
// instead of racing table creation.
type DB struct {
	*sql.DB

	initOnce sync.Once
	initErr  error
}

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*DB, error) {
	pool, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(); err != nil {
		return nil, err
	}
	logrus.Info("connected to database")
	return &DB{DB: pool}, nil
}

// EnsureSchema creates all tables and indexes if they do not exist. Safe to
// call repeatedly and from concurrent goroutines.
func (d *DB) EnsureSchema() error {
	d.initOnce.Do(func() {
		d.initErr = d.createTables()
	})
	return d.initErr
}

func (d *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id SERIAL PRIMARY KEY,
		account_id INTEGER NOT NULL DEFAULT 1,
		name TEXT NOT NULL,
		ig_media_id TEXT,
		ig_media_url TEXT,
		ig_media_caption TEXT,
		trigger_type TEXT NOT NULL DEFAULT 'all' CHECK(trigger_type IN ('all', 'keyword')),
		keywords TEXT NOT NULL DEFAULT '[]',
		check_follower BOOLEAN NOT NULL DEFAULT FALSE,
		dm_default TEXT NOT NULL DEFAULT '',
		dm_follower TEXT NOT NULL DEFAULT '',
		dm_non_follower TEXT NOT NULL DEFAULT '',
		cta_follower_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		cta_follower_button_text TEXT NOT NULL DEFAULT '',
		cta_follower_payload TEXT NOT NULL DEFAULT '',
		cta_follower_prompt TEXT NOT NULL DEFAULT '',
		cta_non_follower_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		cta_non_follower_button_text TEXT NOT NULL DEFAULT '',
		cta_non_follower_payload TEXT NOT NULL DEFAULT '',
		cta_non_follower_prompt TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		execution_mode TEXT NOT NULL DEFAULT 'polling' CHECK(execution_mode IN ('polling', 'webhook')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_campaigns_active ON campaigns(is_active);

	CREATE TABLE IF NOT EXISTS dm_logs (
		id SERIAL PRIMARY KEY,
		campaign_id INTEGER REFERENCES campaigns(id) ON DELETE SET NULL,
		ig_user_id TEXT,
		ig_username TEXT,
		comment_id TEXT,
		comment_text TEXT,
		is_follower BOOLEAN,
		dm_sent TEXT,
		status TEXT NOT NULL DEFAULT 'sent' CHECK(status IN ('sent', 'failed', 'pending')),
		error_message TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_dm_logs_campaign ON dm_logs(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_dm_logs_created ON dm_logs(created_at DESC);

	CREATE TABLE IF NOT EXISTS follow_status_cache (
		id SERIAL PRIMARY KEY,
		account_id INTEGER NOT NULL,
		ig_user_id TEXT NOT NULL,
		ig_username TEXT,
		is_follower BOOLEAN NOT NULL,
		source TEXT NOT NULL,
		checked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, ig_user_id)
	);

	CREATE TABLE IF NOT EXISTS followers_cache (
		id SERIAL PRIMARY KEY,
		account_id INTEGER NOT NULL,
		ig_user_id TEXT NOT NULL,
		ig_username TEXT,
		cached_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, ig_user_id)
	);

	CREATE TABLE IF NOT EXISTS follow_recheck_pending (
		id SERIAL PRIMARY KEY,
		account_id INTEGER NOT NULL,
		ig_user_id TEXT NOT NULL,
		ig_username TEXT,
		campaign_id INTEGER NOT NULL,
		comment_id TEXT,
		comment_text TEXT,
		cta_button_text TEXT,
		cta_payload TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, ig_user_id, campaign_id)
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS webhook_logs (
		id SERIAL PRIMARY KEY,
		event_type TEXT,
		payload TEXT,
		processed BOOLEAN NOT NULL DEFAULT FALSE,
		result TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_webhook_logs_created ON webhook_logs(created_at DESC);
	`

	_, err := d.Exec(schema)
	return err
}
