package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/umkm-labs/warung/fields"
)

// Summary aggregates the user's inventory and the sales recorded since since.
// Goods at or below lowStock count as low stock.
func (s *Store) Summary(ctx context.Context, userID uuid.UUID, since time.Time, lowStock int) (*fields.Summary, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var out fields.Summary

	goodsStmt := s.DB.Rebind(`SELECT COUNT(*) AS goods_count,
		COALESCE(SUM(CASE WHEN stock_quantity <= ? THEN 1 ELSE 0 END), 0) AS low_stock_count
		FROM goods WHERE user_id = ?`)
	if err := db.QueryRowxContext(ctx, goodsStmt, lowStock, userID).Scan(&out.GoodsCount, &out.LowStockCount); err != nil {
		return nil, dbError(err, nil, "summarize goods")
	}

	salesStmt := s.DB.Rebind(`SELECT COALESCE(SUM(quantity), 0) AS units_sold,
		COALESCE(SUM(total_profit), 0) AS revenue
		FROM sales WHERE user_id = ? AND sale_date >= ?`)
	if err := db.QueryRowxContext(ctx, salesStmt, userID, since.UTC()).Scan(&out.UnitsSold, &out.Revenue); err != nil {
		return nil, dbError(err, nil, "summarize sales")
	}
	return &out, nil
}
