package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openAtVersion opens a fresh sqlite file migrated only up to version.
func openAtVersion(t *testing.T, version int64) *DB {
	t.Helper()
	db, err := OpenFromConfig("", filepath.Join(t.TempDir(), "legacy.db"), DriverSQLite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	dir, err := prepareGoose(db)
	require.NoError(t, err)
	require.NoError(t, goose.UpToContext(context.Background(), db.DB.DB, dir, version))
	return db
}

func seedLegacySales(t *testing.T, db *DB, price float64, quantities ...int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	userID, goodsID := uuid.New(), uuid.New()
	_, err := db.ExecContext(ctx, `INSERT INTO users(id, email, password_hash, created_at) VALUES(?, ?, ?, ?)`,
		userID, "lama@warung.id", "hash", now)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO goods(id, user_id, name, price, stock_quantity, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
		goodsID, userID, "Beras", price, 100, now)
	require.NoError(t, err)
	for _, q := range quantities {
		_, err = db.ExecContext(ctx, `INSERT INTO sales(id, user_id, goods_id, quantity, sale_date, created_at) VALUES(?, ?, ?, ?, ?, ?)`,
			uuid.New(), userID, goodsID, q, now, now)
		require.NoError(t, err)
	}
	return goodsID
}

func profits(t *testing.T, db *DB) []float64 {
	t.Helper()
	var out []float64
	require.NoError(t, db.SelectContext(context.Background(), &out, `SELECT total_profit FROM sales ORDER BY quantity`))
	return out
}

func TestBackfillFillsMissingProfit(t *testing.T) {
	db := openAtVersion(t, 1)
	seedLegacySales(t, db, 12000, 1, 3)

	var missing int
	require.NoError(t, db.GetContext(context.Background(), &missing, `SELECT COUNT(*) FROM sales WHERE total_profit IS NULL`))
	require.Equal(t, 2, missing)

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, []float64{12000, 36000}, profits(t, db))

	version, err := Version(context.Background(), db)
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)
}

func TestBackfillAddsProfitColumn(t *testing.T) {
	db := openAtVersion(t, 1)
	_, err := db.ExecContext(context.Background(), `ALTER TABLE sales DROP COLUMN total_profit`)
	require.NoError(t, err)
	seedLegacySales(t, db, 2500, 4)

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, []float64{10000}, profits(t, db))
}

func TestBackfillKeepsRecordedProfit(t *testing.T) {
	db := openAtVersion(t, 1)
	seedLegacySales(t, db, 1000, 2)
	_, err := db.ExecContext(context.Background(), `UPDATE sales SET total_profit = 1500`)
	require.NoError(t, err)

	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, []float64{1500}, profits(t, db))
}
