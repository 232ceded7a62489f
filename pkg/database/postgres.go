package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/campus-api/pkg/config"
)

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// schema mirrors the JSON layout of the file driver. Enrollments keep plain
// text references: they are validated when created and never afterwards.
const schema = `
CREATE TABLE IF NOT EXISTS students (
    id         TEXT PRIMARY KEY,
    seq        INTEGER NOT NULL UNIQUE,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL UNIQUE,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS student_api_keys (
    student_id TEXT PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
    api_key    TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
    id             TEXT PRIMARY KEY,
    seq            INTEGER NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    capacity       INTEGER NOT NULL CHECK (capacity >= 1),
    enrolled_count INTEGER NOT NULL DEFAULT 0 CHECK (enrolled_count >= 0 AND enrolled_count <= capacity),
    status         TEXT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS enrollments (
    id           TEXT PRIMARY KEY,
    seq          INTEGER NOT NULL UNIQUE,
    student_id   TEXT NOT NULL,
    course_id    TEXT NOT NULL,
    status       TEXT NOT NULL,
    enrolled_at  TIMESTAMPTZ NOT NULL,
    cancelled_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS enrollments_one_confirmed
    ON enrollments (student_id, course_id) WHERE status = 'CONFIRMED';
`

// EnsureSchema creates the tables used by the postgres storage driver.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
