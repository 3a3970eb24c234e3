// Package adapters provides database adapter implementations for the
// PostgreSQL aggregation engine.
//
// The adapter pattern lets the engine run unchanged against pgxpool.Pool,
// sql.DB, and sqlx.DB connections. All adapters expose the same DBAdapter
// interface for query execution and row iteration; the engine never sees
// which database library is underneath.
package adapters
