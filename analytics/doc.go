// Package analytics defines the core types and aggregation logic for the
// library lending analytics engine.
//
// The package holds the entity types (Book, User, Borrow), the typed results
// of the six read operations, the Engine interface implemented by the storage
// engines, and the pure aggregation functions (grouping, windowing, ranking,
// read-rate) that the in-memory engine and the tests are built on.
//
// All operations are read-only: the engine never mutates Books, Users, or
// Borrow records. Referential integrity and the copy-count bound on
// concurrently outstanding borrows are maintained by the record store, not
// enforced here.
package analytics
