package analytics

import (
	"context"
)

const (
	// TopBooksLimit caps the MostBorrowedBooks ranking.
	TopBooksLimit = 3

	// TopBorrowersLimit caps the TopBorrowers ranking.
	TopBorrowersLimit = 3
)

// Engine is the aggregation engine consumed by the transport layer: six
// independent read-only query pipelines over the same Book/User/Borrow record
// sets. Each call is a pure function of (store snapshot, parameters); calling
// an operation twice against identical store state yields identical results.
type Engine interface {
	// MostBorrowedBooks returns up to TopBooksLimit books ranked by total
	// historical borrow count, descending. Books with zero borrows never
	// appear. Equal counts are ordered by ascending book id.
	MostBorrowedBooks(ctx context.Context) ([]BookBorrowCount, error)

	// BookAvailability reports the free and outstanding copy counts of one
	// book at the time of the call, or ErrBookNotFound.
	BookAvailability(ctx context.Context, bookID int) (Availability, error)

	// TopBorrowers returns up to TopBorrowersLimit users ranked by the number
	// of borrow events whose borrow date falls within the window, descending.
	// Equal counts are ordered by ascending user id.
	TopBorrowers(ctx context.Context, window TimeWindow) ([]BorrowerCount, error)

	// UserBorrowedBooks returns the distinct books the user borrowed within
	// the window, each with the user's in-window borrow count. Unranked,
	// unlimited; an unknown user yields an empty result.
	UserBorrowedBooks(ctx context.Context, userID int, window TimeWindow) ([]BookBorrowCount, error)

	// CoBorrowedBooks returns the other books ever borrowed by any user who
	// has ever borrowed the given book, with co-borrowing event counts. The
	// queried book itself is never included.
	CoBorrowedBooks(ctx context.Context, bookID int) ([]BookBorrowCount, error)

	// ReadRate estimates the book's average reading rate in pages per day
	// across its borrow history, or 0 if the book does not exist or has no
	// borrows.
	ReadRate(ctx context.Context, bookID int) (float64, error)
}
