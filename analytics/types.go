package analytics

import (
	"time"
)

// Book is a title held by the library with a fixed number of physical copies.
type Book struct {
	ID     int    `json:"id" db:"id"`
	Title  string `json:"title" db:"title"`
	Pages  int    `json:"pages" db:"pages"`
	Copies int    `json:"copies" db:"copies"`
}

// User is a registered library member.
type User struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Borrow is one lending event: a user taking a book for a time span.
// ReturnedAt is nil while the loan is still outstanding.
type Borrow struct {
	ID         int        `json:"id" db:"id"`
	BookID     int        `json:"bookId" db:"book_id"`
	UserID     int        `json:"userId" db:"user_id"`
	BorrowedAt time.Time  `json:"borrowedAt" db:"borrowed_at"`
	ReturnedAt *time.Time `json:"returnedAt" db:"returned_at"`
}

// BookBorrowCount is a book annotated with how many borrow events matched
// the query that produced it.
type BookBorrowCount struct {
	BookID      int    `json:"id"`
	Title       string `json:"title"`
	Pages       int    `json:"pages"`
	BorrowCount int    `json:"borrowCount"`
}

// BorrowerCount is a user annotated with their borrow event count.
type BorrowerCount struct {
	UserID      int    `json:"id"`
	Name        string `json:"name"`
	BorrowCount int    `json:"borrowCount"`
}

// Availability reports how many copies of a book are free and how many are
// out at the reference instant of the query. Available is the raw value
// copies minus borrowed and may go negative if overbooking occurred upstream.
type Availability struct {
	Available int `json:"available"`
	Borrowed  int `json:"borrowed"`
}

// TimeWindow is an inclusive [From, Until] time range. A window with
// From after Until matches nothing; no validation error is raised for it.
type TimeWindow struct {
	From  time.Time
	Until time.Time
}

// NewTimeWindow creates an inclusive time window from two instants.
func NewTimeWindow(from, until time.Time) TimeWindow {
	return TimeWindow{From: from, Until: until}
}

// Contains reports whether t lies within the window, boundaries included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.Until)
}
