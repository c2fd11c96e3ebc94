package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			points INT NOT NULL DEFAULT 0 CHECK(points >= 0),
			fcm_token TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create markers table
		`CREATE TABLE IF NOT EXISTS markers (
			id TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL,
			address TEXT,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'cleaned', 'removed')),
			reported_by TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (reported_by) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create photos table
		`CREATE TABLE IF NOT EXISTS photos (
			id TEXT PRIMARY KEY,
			marker_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			image_path TEXT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('before', 'after')),
			verification_status TEXT NOT NULL DEFAULT 'pending' CHECK(verification_status IN ('pending', 'approved', 'rejected')),
			judge_response TEXT,
			confidence DOUBLE PRECISION,
			verified_at BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (marker_id) REFERENCES markers(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create point_history table (append-only ledger)
		`CREATE TABLE IF NOT EXISTS point_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			points INT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('earned', 'used')),
			description TEXT NOT NULL,
			related_photo_id TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (related_photo_id) REFERENCES photos(id) ON DELETE SET NULL
		)`,

		// Create rewards table
		`CREATE TABLE IF NOT EXISTS rewards (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			points_used INT NOT NULL CHECK(points_used > 0),
			reward_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'approved' CHECK(status IN ('pending', 'approved', 'rejected')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			processed_at BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create reward_pins table
		`CREATE TABLE IF NOT EXISTS reward_pins (
			id TEXT PRIMARY KEY,
			reward_id TEXT NOT NULL UNIQUE,
			pin_number TEXT NOT NULL UNIQUE,
			issued_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			is_used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at BIGINT,
			FOREIGN KEY (reward_id) REFERENCES rewards(id) ON DELETE CASCADE
		)`,

		// Create verification_tasks table (durable queue for the worker)
		`CREATE TABLE IF NOT EXISTS verification_tasks (
			id TEXT PRIMARY KEY,
			marker_id TEXT NOT NULL,
			uploader_id TEXT NOT NULL,
			photo_kind TEXT NOT NULL CHECK(photo_kind IN ('before', 'after')),
			status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'done', 'failed')),
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			processed_at BIGINT,
			FOREIGN KEY (marker_id) REFERENCES markers(id) ON DELETE CASCADE,
			FOREIGN KEY (uploader_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE INDEX IF NOT EXISTS idx_markers_status ON markers(status)`,
		`CREATE INDEX IF NOT EXISTS idx_markers_reported_by ON markers(reported_by)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_marker_id ON photos(marker_id)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_marker_type ON photos(marker_id, type)`,
		`CREATE INDEX IF NOT EXISTS idx_photos_verification_status ON photos(verification_status)`,
		`CREATE INDEX IF NOT EXISTS idx_point_history_user_id ON point_history(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_point_history_user_created ON point_history(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_rewards_user_id ON rewards(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rewards_status ON rewards(status)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reward_pins_pin_number ON reward_pins(pin_number)`,
		`CREATE INDEX IF NOT EXISTS idx_verification_tasks_status ON verification_tasks(status)`,
		`CREATE INDEX IF NOT EXISTS idx_verification_tasks_marker_id ON verification_tasks(marker_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
