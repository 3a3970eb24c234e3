package analytics

import (
	"slices"
	"time"
)

// minReadDays floors the duration of a single borrow for the read-rate
// calculation. A same-day or negative-duration borrow counts as a one-day
// read so the per-borrow rate neither blows up nor inverts its sign.
const minReadDays = 1.0

const hoursPerDay = 24.0

// CountBorrowsByBook tallies the given borrow events per book id.
func CountBorrowsByBook(borrows []Borrow) map[int]int {
	counts := make(map[int]int)
	for _, b := range borrows {
		counts[b.BookID]++
	}
	return counts
}

// CountBorrowsByBookForUser tallies the borrow events of one user per book
// id, restricted to events whose borrow date lies within the window.
func CountBorrowsByBookForUser(borrows []Borrow, userID int, window TimeWindow) map[int]int {
	counts := make(map[int]int)
	for _, b := range borrows {
		if b.UserID == userID && window.Contains(b.BorrowedAt) {
			counts[b.BookID]++
		}
	}
	return counts
}

// CountBorrowsByUser tallies borrow events per user id, restricted to events
// whose borrow date lies within the window.
func CountBorrowsByUser(borrows []Borrow, window TimeWindow) map[int]int {
	counts := make(map[int]int)
	for _, b := range borrows {
		if window.Contains(b.BorrowedAt) {
			counts[b.UserID]++
		}
	}
	return counts
}

// RankBooks joins per-book tallies with the book catalog and returns them
// ordered by count descending, book id ascending on ties. Books without a
// tally produce no entry. A limit <= 0 means unlimited.
func RankBooks(books []Book, counts map[int]int, limit int) []BookBorrowCount {
	ranked := make([]BookBorrowCount, 0, len(counts))
	for _, book := range books {
		count, ok := counts[book.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, BookBorrowCount{
			BookID:      book.ID,
			Title:       book.Title,
			Pages:       book.Pages,
			BorrowCount: count,
		})
	}

	slices.SortFunc(ranked, func(a, b BookBorrowCount) int {
		if a.BorrowCount != b.BorrowCount {
			return b.BorrowCount - a.BorrowCount
		}
		return a.BookID - b.BookID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// RankBorrowers joins per-user tallies with the user set and returns them
// ordered by count descending, user id ascending on ties. A limit <= 0 means
// unlimited.
func RankBorrowers(users []User, counts map[int]int, limit int) []BorrowerCount {
	ranked := make([]BorrowerCount, 0, len(counts))
	for _, user := range users {
		count, ok := counts[user.ID]
		if !ok {
			continue
		}
		ranked = append(ranked, BorrowerCount{
			UserID:      user.ID,
			Name:        user.Name,
			BorrowCount: count,
		})
	}

	slices.SortFunc(ranked, func(a, b BorrowerCount) int {
		if a.BorrowCount != b.BorrowCount {
			return b.BorrowCount - a.BorrowCount
		}
		return a.UserID - b.UserID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}

// OutstandingCount returns how many of the given borrows straddle the
// reference instant, i.e. borrowed at or before now and returned at or after
// now. A borrow with no return date is never counted as outstanding; the
// comparison is strictly null-safe.
func OutstandingCount(borrows []Borrow, now time.Time) int {
	count := 0
	for _, b := range borrows {
		if b.BorrowedAt.After(now) {
			continue
		}
		if b.ReturnedAt == nil || b.ReturnedAt.Before(now) {
			continue
		}
		count++
	}
	return count
}

// ReadRatePagesPerDay computes the mean of the per-borrow reading rates
// pages/durationDays across the given borrows, with each duration floored at
// minReadDays. Each borrow event contributes equally regardless of duration
// (mean of rates, not total pages over total days). An empty history yields 0.
//
// A borrow with no return date is coerced to the zero time, which floors to
// a one-day read like any other non-positive duration.
func ReadRatePagesPerDay(pages int, borrows []Borrow) float64 {
	if len(borrows) == 0 {
		return 0
	}

	sum := 0.0
	for _, b := range borrows {
		var returned time.Time
		if b.ReturnedAt != nil {
			returned = *b.ReturnedAt
		}

		days := returned.Sub(b.BorrowedAt).Hours() / hoursPerDay
		if days < minReadDays {
			days = minReadDays
		}

		sum += float64(pages) / days
	}

	return sum / float64(len(borrows))
}
