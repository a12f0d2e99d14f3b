package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/klu-lostfound/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB *sql.DB
}

// DSN builds the Postgres connection string from the PG* environment variables
func DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnv("PGHOST", "localhost"),
		config.GetEnv("PGPORT", "5432"),
		config.GetEnv("PGUSER", "lostfound"),
		config.GetEnv("PGPASSWORD", "lostfound"),
		config.GetEnv("PGDATABASE", "lost_found"),
		config.GetEnv("PGSSLMODE", "disable"))
}

// NewConnection creates a new database connection
func NewConnection() (*Connection, error) {
	db, err := sql.Open("postgres", DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(config.GetEnvInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(config.GetEnvInt("PG_MAX_IDLE_CONNS", 10))

	return &Connection{DB: db}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}
