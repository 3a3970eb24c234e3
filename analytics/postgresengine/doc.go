// Package postgresengine implements the aggregation engine on top of a
// PostgreSQL record store.
//
// The engine pushes grouping, ordering, and limiting down into SQL built with
// goqu wherever an operation is a pure group-and-count pipeline, and falls
// back to fetch-then-compute (shared with the in-memory engine) for the
// availability and read-rate calculations, which need a single consistent
// "now" reference sampled once per call.
//
// It works with pgxpool.Pool, sql.DB, and sqlx.DB connections through a
// common database adapter interface, selected by the constructor used.
// Logging, contextual logging, and metrics collection are optional and
// configured through functional options.
package postgresengine
