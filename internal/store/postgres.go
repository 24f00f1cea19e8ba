package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps the document as JSONB in a single fixed row. It exists
// for deployments that already run Postgres and want durability without a
// Redis instance; the replace-whole-document semantics are unchanged.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore connects, verifies, and ensures the document table.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kudos_document (
			id INT PRIMARY KEY CHECK (id = 1),
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure document table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Read(ctx context.Context) (Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM kudos_document WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return NewDocument(), nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("read document row: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func (s *PostgresStore) Write(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO kudos_document (id, doc, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()
	`, data); err != nil {
		return fmt.Errorf("write document row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
