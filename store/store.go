package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/umkm-labs/warung/apperr"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Store provides manual-SQL data access. Every query is scoped by user id.
type Store struct {
	DB  *DB
	now func() time.Time
}

func New(db *DB, opts ...Option) *Store {
	options := StoreOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &Store{DB: db, now: now}
}

func (s *Store) ensureDB() (*sqlx.DB, error) {
	if s == nil || s.DB == nil || s.DB.DB == nil {
		return nil, apperr.Wrap(errors.New("nil db"), apperr.ErrUnavailable, "database not configured")
	}
	return s.DB.DB, nil
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// NormalizePage clamps a 1-based page index and a page size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Offset converts a 1-based page index into a row offset.
func Offset(page, limit int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern matches q anywhere, case-insensitively. Wildcards typed by the
// user are matched literally; pair it with likeMatch.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}

// likeMatch is a case-insensitive LIKE on column using backslash escapes.
func likeMatch(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

// forUpdate locks the selected rows until the transaction ends. sqlite has no
// row locks; its transactions begin immediate and hold the write lock.
func (s *Store) forUpdate(clause string) string {
	if s.DB != nil && s.DB.Driver == DriverPostgres {
		return " FOR UPDATE" + clause
	}
	return ""
}

// dbError maps driver errors onto apperr sentinels.
func dbError(err error, notFound *apperr.Error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		if notFound == nil {
			notFound = apperr.ErrNotFound
		}
		return apperr.Wrap(err, notFound, notFound.Message)
	}
	if isUniqueViolation(err) {
		return apperr.Wrap(err, apperr.ErrConflict, op+": already exists")
	}
	return apperr.Wrap(err, apperr.ErrDatabase, fmt.Sprintf("%s failed", op))
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}

// ErrNotFound returns true if the provided error is a not found error.
func ErrNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, apperr.ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
