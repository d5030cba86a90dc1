package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

const (
	defaultSQLitePath = "warung.db"
	sqliteParams      = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
	openPingTimeout   = 10 * time.Second
)

var errNilDB = errors.New("store: database not opened")

// DB is an sqlx handle that remembers which driver it talks to.
type DB struct {
	*sqlx.DB
	Driver string
}

// OpenFromConfig opens postgres when dbURL is set (or the driver asks for
// it) and a sqlite file otherwise, then pings it.
func OpenFromConfig(dbURL, sqlitePath, driverOverride string) (*DB, error) {
	sqlx.NameMapper = snakeCase

	driver, dsn, err := resolveDriver(strings.TrimSpace(dbURL), sqlitePath, driverOverride)
	if err != nil {
		return nil, err
	}
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), openPingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &DB{DB: conn, Driver: driver}, nil
}

func resolveDriver(dbURL, sqlitePath, override string) (driver, dsn string, err error) {
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "", "default":
		if dbURL != "" {
			return DriverPostgres, dbURL, nil
		}
		return DriverSQLite, sqliteDSN(sqlitePath), nil
	case "postgres", "postgresql", "pgx":
		if dbURL == "" {
			return "", "", fmt.Errorf("database_url required for %s driver", override)
		}
		return DriverPostgres, dbURL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, sqliteDSN(sqlitePath), nil
	}
	return "", "", fmt.Errorf("unsupported db driver %q", override)
}

func sqliteDSN(path string) string {
	if path == "" {
		path = defaultSQLitePath
	}
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return "file:" + path + "?" + sqliteParams
}

// snakeCase maps Go field names without a db tag, StockQuantity -> stock_quantity.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	if db == nil || db.DB == nil {
		return nil, errNilDB
	}
	return db.DB.BeginTxx(ctx, opts)
}

// Ping reports whether the database answers within ctx.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return errNilDB
	}
	return db.DB.PingContext(ctx)
}
