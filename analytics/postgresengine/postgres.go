package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/shelfstats/shelfstats-go/analytics"
	"github.com/shelfstats/shelfstats-go/analytics/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName   = "books"
	defaultUsersTableName   = "users"
	defaultBorrowsTableName = "borrows"

	dialectPostgres = "postgres"

	aliasBooks       = "bk"
	aliasUsers       = "u"
	aliasBorrows     = "b"
	aliasBorrowCount = "borrow_count"

	colID         = "id"
	colTitle      = "title"
	colPages      = "pages"
	colCopies     = "copies"
	colName       = "name"
	colBookID     = "book_id"
	colUserID     = "user_id"
	colBorrowedAt = "borrowed_at"
	colReturnedAt = "returned_at"

	qualBooksID       = aliasBooks + "." + colID
	qualBooksTitle    = aliasBooks + "." + colTitle
	qualBooksPages    = aliasBooks + "." + colPages
	qualUsersID       = aliasUsers + "." + colID
	qualUsersName     = aliasUsers + "." + colName
	qualBorrowsBookID = aliasBorrows + "." + colBookID
	qualBorrowsUserID = aliasBorrows + "." + colUserID
	qualBorrowedAt    = aliasBorrows + "." + colBorrowedAt

	opMostBorrowedBooks = "MostBorrowedBooks"
	opBookAvailability  = "BookAvailability"
	opTopBorrowers      = "TopBorrowers"
	opUserBorrowedBooks = "UserBorrowedBooks"
	opCoBorrowedBooks   = "CoBorrowedBooks"
	opReadRate          = "ReadRate"

	logMsgBuildQueryFailed = "failed to build select query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "analytics operation: "

	logAttrError       = "error"
	logAttrQuery       = "query"
	logAttrResultCount = "result_count"
	logAttrDurationMS  = "duration_ms"

	queryDurationMetric = "analytics_query_duration_seconds"
	queryCallsMetric    = "analytics_query_calls_total"
	labelOperation      = "operation"
	labelStatus         = "status"
	statusSuccess       = "success"
	statusError         = "error"
)

// Engine implements analytics.Engine against a PostgreSQL record store.
// It leverages a database adapter and supports customizable logging, metrics
// collection, and table name configuration.
type Engine struct {
	db               adapters.DBAdapter
	booksTableName   string
	usersTableName   string
	borrowsTableName string
	logger           analytics.Logger
	contextualLogger analytics.ContextualLogger
	metricsCollector analytics.MetricsCollector
	now              func() time.Time
}

var _ analytics.Engine = Engine{}

// NewEngineFromPGXPool creates a new Engine using a pgx pool with optional configuration.
func NewEngineFromPGXPool(pool *pgxpool.Pool, options ...Option) (Engine, error) {
	if pool == nil {
		return Engine{}, analytics.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(pool), options...)
}

// NewEngineFromPGXPoolWithReplica creates a new Engine that reads from a
// replica pool, falling back to the primary when none is configured.
func NewEngineFromPGXPoolWithReplica(pool, replica *pgxpool.Pool, options ...Option) (Engine, error) {
	if pool == nil {
		return Engine{}, analytics.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapterWithReplica(pool, replica), options...)
}

// NewEngineFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewEngineFromSQLDB(db *sql.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, analytics.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewEngineFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewEngineFromSQLX(db *sqlx.DB, options ...Option) (Engine, error) {
	if db == nil {
		return Engine{}, analytics.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (Engine, error) {
	e := Engine{
		db:               db,
		booksTableName:   defaultBooksTableName,
		usersTableName:   defaultUsersTableName,
		borrowsTableName: defaultBorrowsTableName,
		now:              time.Now,
	}

	for _, option := range options {
		if err := option(&e); err != nil {
			return Engine{}, err
		}
	}

	return e, nil
}

// MostBorrowedBooks returns up to analytics.TopBooksLimit books ranked by
// total historical borrow count, descending, ties broken by ascending id.
// The grouping, ordering, and limit are pushed down into SQL.
func (e Engine) MostBorrowedBooks(ctx context.Context) ([]analytics.BookBorrowCount, error) {
	stmt := e.borrowsJoinBooks().
		GroupBy(goqu.I(qualBooksID), goqu.I(qualBooksTitle), goqu.I(qualBooksPages)).
		Order(goqu.I(aliasBorrowCount).Desc(), goqu.I(qualBooksID).Asc()).
		Limit(analytics.TopBooksLimit)

	return e.queryBookCounts(ctx, opMostBorrowedBooks, stmt)
}

// BookAvailability reports the free and outstanding copy counts of one book,
// or analytics.ErrBookNotFound. The reference time is sampled once and reused
// for both comparisons; a borrow with a NULL return date never compares true
// in SQL and is therefore not counted as outstanding.
func (e Engine) BookAvailability(ctx context.Context, bookID int) (analytics.Availability, error) {
	book, found, err := e.fetchBook(ctx, bookID)
	if err != nil {
		return analytics.Availability{}, err
	}
	if !found {
		return analytics.Availability{}, analytics.ErrBookNotFound
	}

	now := e.now().UTC()

	stmt := e.builder().
		From(e.borrowsTableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.Ex{colBookID: bookID},
			goqu.C(colBorrowedAt).Lte(now),
			goqu.C(colReturnedAt).Gte(now),
		)

	borrowed, err := e.queryCount(ctx, opBookAvailability, stmt)
	if err != nil {
		return analytics.Availability{}, err
	}

	// Raw value, not clamped: overbooking upstream shows up as negative.
	return analytics.Availability{
		Available: book.Copies - borrowed,
		Borrowed:  borrowed,
	}, nil
}

// TopBorrowers returns up to analytics.TopBorrowersLimit users ranked by the
// number of borrow events whose borrow date falls within the window,
// boundaries included. A window with From after Until yields an empty result.
func (e Engine) TopBorrowers(ctx context.Context, window analytics.TimeWindow) ([]analytics.BorrowerCount, error) {
	stmt := e.builder().
		From(goqu.T(e.borrowsTableName).As(aliasBorrows)).
		Join(
			goqu.T(e.usersTableName).As(aliasUsers),
			goqu.On(goqu.I(qualUsersID).Eq(goqu.I(qualBorrowsUserID))),
		).
		Select(
			goqu.I(qualUsersID),
			goqu.I(qualUsersName),
			goqu.COUNT(goqu.Star()).As(aliasBorrowCount),
		).
		Where(
			goqu.I(qualBorrowedAt).Gte(window.From),
			goqu.I(qualBorrowedAt).Lte(window.Until),
		).
		GroupBy(goqu.I(qualUsersID), goqu.I(qualUsersName)).
		Order(goqu.I(aliasBorrowCount).Desc(), goqu.I(qualUsersID).Asc()).
		Limit(analytics.TopBorrowersLimit)

	return e.queryBorrowerCounts(ctx, opTopBorrowers, stmt)
}

// UserBorrowedBooks returns the distinct books the user borrowed within the
// window, each with the in-window borrow count. Unlimited; ordered by book id
// for reproducible output.
func (e Engine) UserBorrowedBooks(ctx context.Context, userID int, window analytics.TimeWindow) ([]analytics.BookBorrowCount, error) {
	stmt := e.borrowsJoinBooks().
		Where(
			goqu.I(qualBorrowsUserID).Eq(userID),
			goqu.I(qualBorrowedAt).Gte(window.From),
			goqu.I(qualBorrowedAt).Lte(window.Until),
		).
		GroupBy(goqu.I(qualBooksID), goqu.I(qualBooksTitle), goqu.I(qualBooksPages)).
		Order(goqu.I(qualBooksID).Asc())

	return e.queryBookCounts(ctx, opUserBorrowedBooks, stmt)
}

// CoBorrowedBooks returns the other books ever borrowed by any user who has
// ever borrowed the given book. The co-borrower set is computed once as a
// subquery and joined back against all borrows in a single statement, never
// per user.
func (e Engine) CoBorrowedBooks(ctx context.Context, bookID int) ([]analytics.BookBorrowCount, error) {
	coBorrowers := e.builder().
		From(e.borrowsTableName).
		Select(colUserID).
		Where(goqu.Ex{colBookID: bookID}).
		Distinct()

	stmt := e.borrowsJoinBooks().
		Where(
			goqu.I(qualBorrowsBookID).Neq(bookID),
			goqu.I(qualBorrowsUserID).In(coBorrowers),
		).
		GroupBy(goqu.I(qualBooksID), goqu.I(qualBooksTitle), goqu.I(qualBooksPages)).
		Order(goqu.I(qualBooksID).Asc())

	return e.queryBookCounts(ctx, opCoBorrowedBooks, stmt)
}

// ReadRate estimates the book's mean reading rate in pages per day across all
// of its borrow records. A missing book or empty borrow history yields 0
// without an error. The per-borrow duration math lives in the analytics
// package and is shared with the in-memory engine.
func (e Engine) ReadRate(ctx context.Context, bookID int) (float64, error) {
	book, found, err := e.fetchBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	borrows, err := e.fetchBorrowsOfBook(ctx, bookID)
	if err != nil {
		return 0, err
	}

	return analytics.ReadRatePagesPerDay(book.Pages, borrows), nil
}

func (e Engine) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// borrowsJoinBooks is the shared SELECT skeleton of the book-grouping
// pipelines: borrows joined to books, projecting the book columns plus a
// borrow count. The grouping key carries title and pages alongside the id so
// results need no second lookup.
func (e Engine) borrowsJoinBooks() *goqu.SelectDataset {
	return e.builder().
		From(goqu.T(e.borrowsTableName).As(aliasBorrows)).
		Join(
			goqu.T(e.booksTableName).As(aliasBooks),
			goqu.On(goqu.I(qualBooksID).Eq(goqu.I(qualBorrowsBookID))),
		).
		Select(
			goqu.I(qualBooksID),
			goqu.I(qualBooksTitle),
			goqu.I(qualBooksPages),
			goqu.COUNT(goqu.Star()).As(aliasBorrowCount),
		)
}

func (e Engine) fetchBook(ctx context.Context, bookID int) (analytics.Book, bool, error) {
	stmt := e.builder().
		From(e.booksTableName).
		Select(colID, colTitle, colPages, colCopies).
		Where(goqu.Ex{colID: bookID})

	sqlQuery, err := e.toSQL(opBookAvailability, stmt)
	if err != nil {
		return analytics.Book{}, false, err
	}

	rows, _, err := e.executeQuery(ctx, opBookAvailability, sqlQuery)
	if err != nil {
		return analytics.Book{}, false, err
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return analytics.Book{}, false, nil
	}

	var book analytics.Book
	if scanErr := rows.Scan(&book.ID, &book.Title, &book.Pages, &book.Copies); scanErr != nil {
		e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
		return analytics.Book{}, false, errors.Join(analytics.ErrScanningRowFailed, scanErr)
	}

	return book, true, nil
}

func (e Engine) fetchBorrowsOfBook(ctx context.Context, bookID int) ([]analytics.Borrow, error) {
	stmt := e.builder().
		From(e.borrowsTableName).
		Select(colBorrowedAt, colReturnedAt).
		Where(goqu.Ex{colBookID: bookID})

	sqlQuery, err := e.toSQL(opReadRate, stmt)
	if err != nil {
		return nil, err
	}

	rows, duration, err := e.executeQuery(ctx, opReadRate, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	borrows := make([]analytics.Borrow, 0)

	for rows.Next() {
		var borrowedAt time.Time
		var returnedAt sql.NullTime

		if scanErr := rows.Scan(&borrowedAt, &returnedAt); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(analytics.ErrScanningRowFailed, scanErr)
		}

		borrow := analytics.Borrow{BookID: bookID, BorrowedAt: borrowedAt}
		if returnedAt.Valid {
			t := returnedAt.Time
			borrow.ReturnedAt = &t
		}

		borrows = append(borrows, borrow)
	}

	e.recordSuccess(ctx, opReadRate, len(borrows), duration)

	return borrows, nil
}

func (e Engine) queryBookCounts(ctx context.Context, op string, stmt *goqu.SelectDataset) ([]analytics.BookBorrowCount, error) {
	sqlQuery, err := e.toSQL(op, stmt)
	if err != nil {
		return nil, err
	}

	rows, duration, err := e.executeQuery(ctx, op, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	results := make([]analytics.BookBorrowCount, 0)

	for rows.Next() {
		var r analytics.BookBorrowCount
		if scanErr := rows.Scan(&r.BookID, &r.Title, &r.Pages, &r.BorrowCount); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(analytics.ErrScanningRowFailed, scanErr)
		}
		results = append(results, r)
	}

	e.recordSuccess(ctx, op, len(results), duration)

	return results, nil
}

func (e Engine) queryBorrowerCounts(ctx context.Context, op string, stmt *goqu.SelectDataset) ([]analytics.BorrowerCount, error) {
	sqlQuery, err := e.toSQL(op, stmt)
	if err != nil {
		return nil, err
	}

	rows, duration, err := e.executeQuery(ctx, op, sqlQuery)
	if err != nil {
		return nil, err
	}
	defer e.closeRows(ctx, rows)

	results := make([]analytics.BorrowerCount, 0)

	for rows.Next() {
		var r analytics.BorrowerCount
		if scanErr := rows.Scan(&r.UserID, &r.Name, &r.BorrowCount); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(analytics.ErrScanningRowFailed, scanErr)
		}
		results = append(results, r)
	}

	e.recordSuccess(ctx, op, len(results), duration)

	return results, nil
}

func (e Engine) queryCount(ctx context.Context, op string, stmt *goqu.SelectDataset) (int, error) {
	sqlQuery, err := e.toSQL(op, stmt)
	if err != nil {
		return 0, err
	}

	rows, duration, err := e.executeQuery(ctx, op, sqlQuery)
	if err != nil {
		return 0, err
	}
	defer e.closeRows(ctx, rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			e.logError(ctx, logMsgScanRowFailed, logAttrError, scanErr.Error())
			return 0, errors.Join(analytics.ErrScanningRowFailed, scanErr)
		}
	}

	e.recordSuccess(ctx, op, 1, duration)

	return count, nil
}

func (e Engine) toSQL(op string, stmt *goqu.SelectDataset) (string, error) {
	sqlQuery, _, err := stmt.ToSQL()
	if err != nil {
		e.logError(context.Background(), logMsgBuildQueryFailed, logAttrError, err.Error(), labelOperation, op)
		return "", errors.Join(analytics.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (e Engine) executeQuery(ctx context.Context, op string, sqlQuery string) (adapters.DBRows, time.Duration, error) {
	start := time.Now()
	rows, queryErr := e.db.Query(ctx, sqlQuery)
	duration := time.Since(start)

	e.logDebug(ctx, logMsgSQLExecuted+op, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)

	if queryErr != nil {
		e.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		e.recordCall(op, statusError, duration)

		return nil, duration, errors.Join(analytics.ErrQueryingStoreFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (e Engine) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		e.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (e Engine) recordSuccess(ctx context.Context, op string, resultCount int, duration time.Duration) {
	e.logInfo(ctx, logMsgOperation+op,
		logAttrResultCount, resultCount,
		logAttrDurationMS, durationToMilliseconds(duration))
	e.recordCall(op, statusSuccess, duration)
}

func (e Engine) recordCall(op string, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: op, labelStatus: status}
	e.metricsCollector.RecordDuration(queryDurationMetric, duration, labels)
	e.metricsCollector.IncrementCounter(queryCallsMetric, labels)
}

func (e Engine) logDebug(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

func (e Engine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e Engine) logError(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
