package bootstrap

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		pages INTEGER NOT NULL,
		copies INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS borrows (
		id SERIAL PRIMARY KEY,
		book_id INTEGER NOT NULL REFERENCES books (id),
		user_id INTEGER NOT NULL REFERENCES users (id),
		borrowed_at TIMESTAMPTZ NOT NULL,
		returned_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_borrows_book_id ON borrows (book_id)`,
	`CREATE INDEX IF NOT EXISTS idx_borrows_user_id ON borrows (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_borrows_borrowed_at ON borrows (borrowed_at)`,
}

// CreateSchema creates the books, users, and borrows tables and their
// indexes if they do not exist yet.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
