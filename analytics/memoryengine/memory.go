// Package memoryengine implements the aggregation engine over in-memory
// record sets, for stores that cannot push grouping down into a query, and
// for development and testing.
//
// All six operations run the shared pure aggregation functions from the
// analytics package over plain slices. The engine holds no per-request
// state; a mutex guards the record sets so concurrent requests and seeding
// do not race.
package memoryengine

import (
	"context"
	"sync"
	"time"

	"github.com/shelfstats/shelfstats-go/analytics"
)

// Engine is an in-memory implementation of analytics.Engine.
type Engine struct {
	mu      sync.RWMutex
	books   []analytics.Book
	users   []analytics.User
	borrows []analytics.Borrow

	bookIDCounter   int
	userIDCounter   int
	borrowIDCounter int

	now func() time.Time
}

var _ analytics.Engine = (*Engine)(nil)

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{now: time.Now}
}

// NewWithClock creates an empty in-memory engine with a fixed time source,
// for deterministic availability results in tests.
func NewWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// AddBook stores a book. A zero id is replaced with the next counter value.
// The stored book is returned.
func (e *Engine) AddBook(book analytics.Book) analytics.Book {
	e.mu.Lock()
	defer e.mu.Unlock()

	if book.ID == 0 {
		e.bookIDCounter++
		book.ID = e.bookIDCounter
	}
	e.books = append(e.books, book)

	return book
}

// AddUser stores a user. A zero id is replaced with the next counter value.
func (e *Engine) AddUser(user analytics.User) analytics.User {
	e.mu.Lock()
	defer e.mu.Unlock()

	if user.ID == 0 {
		e.userIDCounter++
		user.ID = e.userIDCounter
	}
	e.users = append(e.users, user)

	return user
}

// AddBorrow stores a borrow event. A zero id is replaced with the next
// counter value. Referential integrity is the caller's concern, as it is the
// record store's in the SQL engine.
func (e *Engine) AddBorrow(borrow analytics.Borrow) analytics.Borrow {
	e.mu.Lock()
	defer e.mu.Unlock()

	if borrow.ID == 0 {
		e.borrowIDCounter++
		borrow.ID = e.borrowIDCounter
	}
	e.borrows = append(e.borrows, borrow)

	return borrow
}

// MostBorrowedBooks returns up to analytics.TopBooksLimit books ranked by
// total historical borrow count, descending, ties broken by ascending id.
func (e *Engine) MostBorrowedBooks(_ context.Context) ([]analytics.BookBorrowCount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := analytics.CountBorrowsByBook(e.borrows)

	return analytics.RankBooks(e.books, counts, analytics.TopBooksLimit), nil
}

// BookAvailability reports the free and outstanding copy counts of one book
// at a single reference instant, or analytics.ErrBookNotFound.
func (e *Engine) BookAvailability(_ context.Context, bookID int) (analytics.Availability, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	book, found := e.findBook(bookID)
	if !found {
		return analytics.Availability{}, analytics.ErrBookNotFound
	}

	now := e.now().UTC()
	borrowed := analytics.OutstandingCount(e.borrowsOfBook(bookID), now)

	return analytics.Availability{
		Available: book.Copies - borrowed,
		Borrowed:  borrowed,
	}, nil
}

// TopBorrowers returns up to analytics.TopBorrowersLimit users ranked by
// in-window borrow count, descending, ties broken by ascending id.
func (e *Engine) TopBorrowers(_ context.Context, window analytics.TimeWindow) ([]analytics.BorrowerCount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := analytics.CountBorrowsByUser(e.borrows, window)

	return analytics.RankBorrowers(e.users, counts, analytics.TopBorrowersLimit), nil
}

// UserBorrowedBooks returns the distinct books the user borrowed within the
// window, each with the in-window borrow count.
func (e *Engine) UserBorrowedBooks(_ context.Context, userID int, window analytics.TimeWindow) ([]analytics.BookBorrowCount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := analytics.CountBorrowsByBookForUser(e.borrows, userID, window)

	return analytics.RankBooks(e.books, counts, 0), nil
}

// CoBorrowedBooks returns the other books ever borrowed by the users who have
// ever borrowed the given book. The co-borrower set is computed once, then
// all borrows are filtered in a single pass.
func (e *Engine) CoBorrowedBooks(_ context.Context, bookID int) ([]analytics.BookBorrowCount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	coBorrowers := make(map[int]struct{})
	for _, b := range e.borrows {
		if b.BookID == bookID {
			coBorrowers[b.UserID] = struct{}{}
		}
	}

	counts := make(map[int]int)
	for _, b := range e.borrows {
		if b.BookID == bookID {
			continue
		}
		if _, ok := coBorrowers[b.UserID]; ok {
			counts[b.BookID]++
		}
	}

	return analytics.RankBooks(e.books, counts, 0), nil
}

// ReadRate estimates the book's mean reading rate in pages per day, or 0 for
// a missing book or empty borrow history.
func (e *Engine) ReadRate(_ context.Context, bookID int) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	book, found := e.findBook(bookID)
	if !found {
		return 0, nil
	}

	return analytics.ReadRatePagesPerDay(book.Pages, e.borrowsOfBook(bookID)), nil
}

func (e *Engine) findBook(bookID int) (analytics.Book, bool) {
	for _, b := range e.books {
		if b.ID == bookID {
			return b, true
		}
	}
	return analytics.Book{}, false
}

func (e *Engine) borrowsOfBook(bookID int) []analytics.Borrow {
	borrows := make([]analytics.Borrow, 0)
	for _, b := range e.borrows {
		if b.BookID == bookID {
			borrows = append(borrows, b)
		}
	}
	return borrows
}
