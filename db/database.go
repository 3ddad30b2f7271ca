package db

import (
	"database/sql"
	"fmt"
	"log"

	"ShelfFM/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
// Migrations here are additive only; the persisted track shape must stay
// readable by older libraries.
func InitDB() error {
	if err := createTracksTable(); err != nil {
		return err
	}
	if err := createDeletedEntriesTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id VARCHAR(128) NOT NULL PRIMARY KEY,
		title VARCHAR(512) NOT NULL DEFAULT '',
		artist VARCHAR(512) NOT NULL DEFAULT '',
		album VARCHAR(512) NOT NULL DEFAULT '',
		folder VARCHAR(1024) NOT NULL DEFAULT '',
		filename VARCHAR(512) NOT NULL DEFAULT '',
		duration DOUBLE NOT NULL DEFAULT 0,
		added_at DATETIME NOT NULL,
		favorite TINYINT(1) NOT NULL DEFAULT 0,
		source VARCHAR(32) NOT NULL DEFAULT 'imported',
		source_key VARCHAR(512) NOT NULL DEFAULT '',
		art_url VARCHAR(1024) NOT NULL DEFAULT '',
		INDEX idx_tracks_source_key (source_key),
		INDEX idx_tracks_added_at (added_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}
	return nil
}

func createDeletedEntriesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS deleted_entries (
		source_key VARCHAR(512) NOT NULL PRIMARY KEY,
		deleted_at DATETIME NOT NULL,
		title VARCHAR(512) NOT NULL DEFAULT '',
		artist VARCHAR(512) NOT NULL DEFAULT '',
		album VARCHAR(512) NOT NULL DEFAULT '',
		folder VARCHAR(1024) NOT NULL DEFAULT '',
		filename VARCHAR(512) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create deleted_entries table: %w", err)
	}
	return nil
}
