package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(backfillProfitUp, backfillProfitDown)
}

// backfillProfitUp makes sure sales carry total_profit and fills it for rows
// recorded before the column existed, pricing them at the current goods price.
func backfillProfitUp(ctx context.Context, tx *sql.Tx) error {
	schema := schemaInspector{tx: tx, driver: migrationDriver}
	if schema.driver == "" {
		schema.driver = DriverSQLite
	}

	hasSales, err := schema.hasTable(ctx, "sales")
	if err != nil || !hasSales {
		return err
	}
	hasProfit, err := schema.hasColumn(ctx, "sales", "total_profit")
	if err != nil {
		return err
	}
	if !hasProfit {
		colType := "REAL"
		if schema.driver == DriverPostgres {
			colType = "DOUBLE PRECISION"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE sales ADD COLUMN total_profit %s", colType)); err != nil {
			return fmt.Errorf("add sales.total_profit: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE sales SET total_profit = quantity * (
		SELECT goods.price FROM goods WHERE goods.id = sales.goods_id
	) WHERE total_profit IS NULL`)
	if err != nil {
		return fmt.Errorf("backfill sales.total_profit: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 && migrationLogger != nil {
		migrationLogger.Printf("backfilled total_profit on %d sales", n)
	}
	return nil
}

// backfillProfitDown keeps the column; computed profits are still valid.
func backfillProfitDown(context.Context, *sql.Tx) error {
	return nil
}

// schemaInspector answers catalog questions for the active dialect.
type schemaInspector struct {
	tx     *sql.Tx
	driver string
}

func (s schemaInspector) hasTable(ctx context.Context, table string) (bool, error) {
	q := `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	if s.driver == DriverPostgres {
		q = `SELECT count(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1`
	}
	var n int
	if err := s.tx.QueryRowContext(ctx, q, table).Scan(&n); err != nil {
		return false, fmt.Errorf("inspect table %s: %w", table, err)
	}
	return n > 0, nil
}

func (s schemaInspector) hasColumn(ctx context.Context, table, column string) (bool, error) {
	q := `SELECT count(*) FROM pragma_table_info(?) WHERE name = ?`
	if s.driver == DriverPostgres {
		q = `SELECT count(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
	}
	var n int
	if err := s.tx.QueryRowContext(ctx, q, table, column).Scan(&n); err != nil {
		return false, fmt.Errorf("inspect column %s.%s: %w", table, column, err)
	}
	return n > 0, nil
}
