package bootstrap

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedBook struct {
	title  string
	pages  int
	copies int
}

type seedBorrow struct {
	book         int // index into the seeded books
	user         int // index into the seeded users
	borrowedDays int // day offset from now
	returnedDays int
}

var seedBooks = []seedBook{
	{title: "Lord of the Rings", pages: 603, copies: 5},
	{title: "A Dance with Dragons", pages: 412, copies: 3},
	{title: "The Hobbit", pages: 310, copies: 4},
}

var seedUsers = []string{"Alice", "Bo", "Chenchen"}

var seedBorrows = []seedBorrow{
	{book: 0, user: 0, borrowedDays: -10, returnedDays: -5},
	{book: 1, user: 0, borrowedDays: -7, returnedDays: -2},
	{book: 0, user: 1, borrowedDays: -3, returnedDays: -1},
	{book: 2, user: 2, borrowedDays: -1, returnedDays: 4},
	{book: 1, user: 2, borrowedDays: -2, returnedDays: 3},
	{book: 1, user: 1, borrowedDays: -4, returnedDays: 1},
}

// Seed populates the record store with the development fixture data: three
// books, three users, and six borrow events placed relative to the current
// time. It does nothing when books already exist.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	var bookCount int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&bookCount); err != nil {
		return err
	}
	if bookCount > 0 {
		return nil
	}

	bookIDs := make([]int, len(seedBooks))
	for i, b := range seedBooks {
		err := pool.QueryRow(ctx,
			`INSERT INTO books (title, pages, copies) VALUES ($1, $2, $3) RETURNING id`,
			b.title, b.pages, b.copies,
		).Scan(&bookIDs[i])
		if err != nil {
			return err
		}
	}

	userIDs := make([]int, len(seedUsers))
	for i, name := range seedUsers {
		err := pool.QueryRow(ctx,
			`INSERT INTO users (name) VALUES ($1) RETURNING id`,
			name,
		).Scan(&userIDs[i])
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	for _, b := range seedBorrows {
		_, err := pool.Exec(ctx,
			`INSERT INTO borrows (book_id, user_id, borrowed_at, returned_at) VALUES ($1, $2, $3, $4)`,
			bookIDs[b.book], userIDs[b.user],
			now.AddDate(0, 0, b.borrowedDays), now.AddDate(0, 0, b.returnedDays),
		)
		if err != nil {
			return err
		}
	}

	return nil
}
