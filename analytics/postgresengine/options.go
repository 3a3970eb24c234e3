package postgresengine

import (
	"time"

	"github.com/shelfstats/shelfstats-go/analytics"
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithTableNames sets the books, users, and borrows table names.
func WithTableNames(books, users, borrows string) Option {
	return func(e *Engine) error {
		if books == "" || users == "" || borrows == "" {
			return analytics.ErrEmptyTableName
		}

		e.booksTableName = books
		e.usersTableName = users
		e.borrowsTableName = borrows

		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Operation names, result counts, durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger analytics.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine. It takes
// precedence over the basic logger and receives the request context for
// trace correlation.
func WithContextualLogger(logger analytics.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine. The collector
// receives per-operation durations and call counters.
func WithMetrics(collector analytics.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithClock overrides the reference time source. The engine samples the
// clock once per operation; availability results within one call always use
// a single consistent instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		e.now = now
		return nil
	}
}
