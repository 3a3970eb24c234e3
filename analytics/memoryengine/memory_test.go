package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfstats/shelfstats-go/analytics"
	"github.com/shelfstats/shelfstats-go/analytics/memoryengine"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return now.AddDate(0, 0, offset)
}

func ptr(t time.Time) *time.Time {
	return &t
}

// seededEngine builds the development fixture set: three books, three users,
// six borrow events placed relative to the fixed clock.
//
// Borrow tallies: Lord of the Rings=2, A Dance with Dragons=3, The Hobbit=1.
// User tallies: Alice=2, Bo=2, Chenchen=2.
func seededEngine() *memoryengine.Engine {
	e := memoryengine.NewWithClock(func() time.Time { return now })

	e.AddBook(analytics.Book{ID: 1, Title: "Lord of the Rings", Pages: 603, Copies: 5})
	e.AddBook(analytics.Book{ID: 2, Title: "A Dance with Dragons", Pages: 412, Copies: 3})
	e.AddBook(analytics.Book{ID: 3, Title: "The Hobbit", Pages: 310, Copies: 4})

	e.AddUser(analytics.User{ID: 1, Name: "Alice"})
	e.AddUser(analytics.User{ID: 2, Name: "Bo"})
	e.AddUser(analytics.User{ID: 3, Name: "Chenchen"})

	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 1, BorrowedAt: day(-10), ReturnedAt: ptr(day(-5))})
	e.AddBorrow(analytics.Borrow{BookID: 2, UserID: 1, BorrowedAt: day(-7), ReturnedAt: ptr(day(-2))})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 2, BorrowedAt: day(-3), ReturnedAt: ptr(day(-1))})
	e.AddBorrow(analytics.Borrow{BookID: 3, UserID: 3, BorrowedAt: day(-1), ReturnedAt: ptr(day(4))})
	e.AddBorrow(analytics.Borrow{BookID: 2, UserID: 3, BorrowedAt: day(-2), ReturnedAt: ptr(day(3))})
	e.AddBorrow(analytics.Borrow{BookID: 2, UserID: 2, BorrowedAt: day(-4), ReturnedAt: ptr(day(1))})

	return e
}

func Test_MostBorrowedBooks_RanksByTotalBorrowCount(t *testing.T) {
	e := seededEngine()

	books, err := e.MostBorrowedBooks(context.Background())

	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "A Dance with Dragons", books[0].Title)
	assert.Equal(t, 3, books[0].BorrowCount)
	assert.Equal(t, "Lord of the Rings", books[1].Title)
	assert.Equal(t, 2, books[1].BorrowCount)
	assert.Equal(t, "The Hobbit", books[2].Title)
	assert.Equal(t, 1, books[2].BorrowCount)
}

func Test_MostBorrowedBooks_NeverIncludesBooksWithoutBorrows(t *testing.T) {
	e := seededEngine()
	e.AddBook(analytics.Book{ID: 4, Title: "Silmarillion", Pages: 365, Copies: 2})

	books, err := e.MostBorrowedBooks(context.Background())

	require.NoError(t, err)
	for _, b := range books {
		assert.NotEqual(t, 4, b.BookID, "book with zero borrows must not appear")
	}
}

func Test_MostBorrowedBooks_EmptyStoreYieldsEmptyList(t *testing.T) {
	e := memoryengine.New()

	books, err := e.MostBorrowedBooks(context.Background())

	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_BookAvailability_NoWindowStraddlesNow(t *testing.T) {
	// Book with 5 copies, borrowed days -10..-5 and -3..-1: both windows lie
	// entirely in the past, so nothing is outstanding at now.
	e := memoryengine.NewWithClock(func() time.Time { return now })
	e.AddBook(analytics.Book{ID: 1, Title: "Lord of the Rings", Pages: 603, Copies: 5})
	e.AddUser(analytics.User{ID: 1, Name: "Alice"})
	e.AddUser(analytics.User{ID: 2, Name: "Bo"})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 1, BorrowedAt: day(-10), ReturnedAt: ptr(day(-5))})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 2, BorrowedAt: day(-3), ReturnedAt: ptr(day(-1))})

	availability, err := e.BookAvailability(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, analytics.Availability{Available: 5, Borrowed: 0}, availability)
}

func Test_BookAvailability_CountsStraddlingBorrows(t *testing.T) {
	e := seededEngine()

	// A Dance with Dragons: 3 copies; borrows -7..-2, -2..3, -4..1; the last
	// two straddle now.
	availability, err := e.BookAvailability(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, analytics.Availability{Available: 1, Borrowed: 2}, availability)
}

func Test_BookAvailability_OpenLoanIsNotCountedAsOutstanding(t *testing.T) {
	e := memoryengine.NewWithClock(func() time.Time { return now })
	e.AddBook(analytics.Book{ID: 1, Title: "Lord of the Rings", Pages: 603, Copies: 5})
	e.AddUser(analytics.User{ID: 1, Name: "Alice"})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 1, BorrowedAt: day(-2)})

	availability, err := e.BookAvailability(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 0, availability.Borrowed, "a borrow with no return date never straddles now")
	assert.Equal(t, 5, availability.Available)
}

func Test_BookAvailability_DoesNotClampNegativeAvailability(t *testing.T) {
	e := memoryengine.NewWithClock(func() time.Time { return now })
	e.AddBook(analytics.Book{ID: 1, Title: "Overbooked", Pages: 100, Copies: 1})
	e.AddUser(analytics.User{ID: 1, Name: "Alice"})
	e.AddUser(analytics.User{ID: 2, Name: "Bo"})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 1, BorrowedAt: day(-1), ReturnedAt: ptr(day(1))})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 2, BorrowedAt: day(-1), ReturnedAt: ptr(day(1))})

	availability, err := e.BookAvailability(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, analytics.Availability{Available: -1, Borrowed: 2}, availability)
}

func Test_BookAvailability_UnknownBookFails(t *testing.T) {
	e := seededEngine()

	_, err := e.BookAvailability(context.Background(), 99)

	assert.ErrorIs(t, err, analytics.ErrBookNotFound)
}

func Test_TopBorrowers_RanksWithinWindowOnly(t *testing.T) {
	e := seededEngine()

	// Window [-4, 0] excludes Alice's -10 and -7 borrows entirely.
	users, err := e.TopBorrowers(context.Background(), analytics.NewTimeWindow(day(-4), day(0)))

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, analytics.BorrowerCount{UserID: 2, Name: "Bo", BorrowCount: 2}, users[0])
	assert.Equal(t, analytics.BorrowerCount{UserID: 3, Name: "Chenchen", BorrowCount: 2}, users[1])
}

func Test_TopBorrowers_InvertedWindowYieldsEmptyResult(t *testing.T) {
	e := seededEngine()

	users, err := e.TopBorrowers(context.Background(), analytics.NewTimeWindow(day(0), day(-10)))

	require.NoError(t, err)
	assert.Empty(t, users)
}

func Test_UserBorrowedBooks_CountsPerBookWithinWindow(t *testing.T) {
	e := seededEngine()

	books, err := e.UserBorrowedBooks(context.Background(), 1, analytics.NewTimeWindow(day(-30), day(0)))

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, analytics.BookBorrowCount{BookID: 1, Title: "Lord of the Rings", Pages: 603, BorrowCount: 1}, books[0])
	assert.Equal(t, analytics.BookBorrowCount{BookID: 2, Title: "A Dance with Dragons", Pages: 412, BorrowCount: 1}, books[1])
}

func Test_UserBorrowedBooks_UnknownUserYieldsEmptyResult(t *testing.T) {
	e := seededEngine()

	books, err := e.UserBorrowedBooks(context.Background(), 99, analytics.NewTimeWindow(day(-30), day(0)))

	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_CoBorrowedBooks_FindsBooksOfCoBorrowers(t *testing.T) {
	e := seededEngine()

	// Lord of the Rings was borrowed by Alice and Bo; together they also
	// borrowed A Dance with Dragons twice.
	books, err := e.CoBorrowedBooks(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, analytics.BookBorrowCount{BookID: 2, Title: "A Dance with Dragons", Pages: 412, BorrowCount: 2}, books[0])
}

func Test_CoBorrowedBooks_NeverIncludesTheQueriedBook(t *testing.T) {
	e := seededEngine()

	books, err := e.CoBorrowedBooks(context.Background(), 2)

	require.NoError(t, err)
	require.NotEmpty(t, books)
	for _, b := range books {
		assert.NotEqual(t, 2, b.BookID)
	}
}

func Test_CoBorrowedBooks_BookWithoutBorrowersYieldsEmptyResult(t *testing.T) {
	e := seededEngine()
	e.AddBook(analytics.Book{ID: 4, Title: "Silmarillion", Pages: 365, Copies: 2})

	books, err := e.CoBorrowedBooks(context.Background(), 4)

	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_ReadRate_AveragesAcrossBorrowHistory(t *testing.T) {
	e := seededEngine()

	// Lord of the Rings, 603 pages: 5-day and 2-day reads.
	rate, err := e.ReadRate(context.Background(), 1)

	require.NoError(t, err)
	assert.InDelta(t, (603.0/5.0+603.0/2.0)/2.0, rate, 0.0001)
}

func Test_ReadRate_MissingBookYieldsZeroWithoutError(t *testing.T) {
	e := seededEngine()

	rate, err := e.ReadRate(context.Background(), 99)

	require.NoError(t, err)
	assert.Zero(t, rate)
}

func Test_ReadRate_BookWithoutBorrowsYieldsZero(t *testing.T) {
	e := seededEngine()
	e.AddBook(analytics.Book{ID: 4, Title: "Silmarillion", Pages: 365, Copies: 2})

	rate, err := e.ReadRate(context.Background(), 4)

	require.NoError(t, err)
	assert.Zero(t, rate)
}

func Test_ReadRate_SameDayBorrowYieldsPageCount(t *testing.T) {
	e := memoryengine.NewWithClock(func() time.Time { return now })
	e.AddBook(analytics.Book{ID: 1, Title: "The Hobbit", Pages: 310, Copies: 4})
	e.AddUser(analytics.User{ID: 1, Name: "Alice"})
	e.AddBorrow(analytics.Borrow{BookID: 1, UserID: 1, BorrowedAt: day(-1), ReturnedAt: ptr(day(-1))})

	rate, err := e.ReadRate(context.Background(), 1)

	require.NoError(t, err)
	assert.InDelta(t, 310.0, rate, 0.0001)
}

func Test_Operations_AreIdempotent(t *testing.T) {
	e := seededEngine()
	ctx := context.Background()
	window := analytics.NewTimeWindow(day(-30), day(0))

	first, err := e.MostBorrowedBooks(ctx)
	require.NoError(t, err)
	second, err := e.MostBorrowedBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	availabilityFirst, err := e.BookAvailability(ctx, 2)
	require.NoError(t, err)
	availabilitySecond, err := e.BookAvailability(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, availabilityFirst, availabilitySecond)

	topFirst, err := e.TopBorrowers(ctx, window)
	require.NoError(t, err)
	topSecond, err := e.TopBorrowers(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, topFirst, topSecond)

	rateFirst, err := e.ReadRate(ctx, 1)
	require.NoError(t, err)
	rateSecond, err := e.ReadRate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, rateFirst, rateSecond)
}
