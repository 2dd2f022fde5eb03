package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the entity store: users, bookings and booking responses in SQLite.
// Bookings and responses are append-only; nothing mutates or deletes them
// after creation, which is what lets status evaluation run lock-free.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY on concurrent writes and
	// keeps :memory: databases from splitting per pooled connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            name TEXT,
            address TEXT,
            contact TEXT,
            district TEXT,
            acres INTEGER,
            crops TEXT,
            workers INTEGER,
            machine_type TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            landowner_id INTEGER NOT NULL,
            landowner_name TEXT NOT NULL,
            service_date DATETIME NOT NULL,
            days INTEGER NOT NULL,
            service_type TEXT NOT NULL,
            num_labor INTEGER NOT NULL DEFAULT 0,
            machine_type TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (landowner_id) REFERENCES users(id)
        )`,

		// The unique index is the store-level guarantee that at most one
		// response per (booking, responder) pair ever persists.
		`CREATE TABLE IF NOT EXISTS booking_responses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            responder_id INTEGER NOT NULL,
            responder_name TEXT NOT NULL,
            responder_role TEXT NOT NULL,
            decision TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY (booking_id) REFERENCES bookings(id),
            FOREIGN KEY (responder_id) REFERENCES users(id),
            UNIQUE (booking_id, responder_id)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_landowner_id ON bookings(landowner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_service_type ON bookings(service_type)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_booking_id ON booking_responses(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_responder_id ON booking_responses(responder_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
