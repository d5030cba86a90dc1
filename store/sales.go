package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

const salesSelect = `SELECT sales.id AS id, sales.user_id AS user_id, sales.goods_id AS goods_id,
	sales.quantity AS quantity, sales.sale_date AS sale_date, sales.total_profit AS total_profit,
	sales.created_at AS created_at, goods.name AS goods_name, goods.category AS goods_category
	FROM sales JOIN goods ON goods.id = sales.goods_id`

type salesRow struct {
	fields.Sales
	GoodsName     string  `db:"goods_name"`
	GoodsCategory *string `db:"goods_category"`
}

func (r salesRow) toSales() fields.Sales {
	out := r.Sales
	out.Goods = fields.GoodsRef{ID: r.GoodsID, Name: r.GoodsName, Category: r.GoodsCategory}
	return out
}

// SalesFilter narrows FilterSales. Zero values are ignored; Page and Limit
// are normalised like ListSales.
type SalesFilter struct {
	GoodsName string
	Start     time.Time
	End       time.Time
	Page      int
	Limit     int
}

func (s *Store) salesWhere(ctx context.Context, where string, args []any, order string, limit, offset int) ([]fields.Sales, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	query := salesSelect + " WHERE " + where + " ORDER BY " + order
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	rows := []salesRow{}
	if err := db.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, dbError(err, nil, "list sales")
	}
	out := make([]fields.Sales, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toSales())
	}
	return out, nil
}

// ListSales returns one page of the user's sales, latest sale date first,
// optionally filtered by goods name.
func (s *Store) ListSales(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Sales, int, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, 0, err
	}
	page, limit = NormalizePage(page, limit)

	where := "sales.user_id = ?"
	args := []any{userID}
	if strings.TrimSpace(q) != "" {
		where += " AND " + likeMatch("goods.name")
		args = append(args, likePattern(q))
	}

	var total int
	count := s.DB.Rebind("SELECT COUNT(*) FROM sales JOIN goods ON goods.id = sales.goods_id WHERE " + where)
	if err := db.GetContext(ctx, &total, count, args...); err != nil {
		return nil, 0, dbError(err, nil, "count sales")
	}
	items, err := s.salesWhere(ctx, where, args, "sales.sale_date DESC, sales.id", limit, Offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FilterSales returns one page of the sales matching f, latest first, with
// the total match count.
func (s *Store) FilterSales(ctx context.Context, userID uuid.UUID, f SalesFilter) ([]fields.Sales, int, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, 0, err
	}
	page, limit := NormalizePage(f.Page, f.Limit)

	where := "sales.user_id = ?"
	args := []any{userID}
	if strings.TrimSpace(f.GoodsName) != "" {
		where += " AND " + likeMatch("goods.name")
		args = append(args, likePattern(f.GoodsName))
	}
	if !f.Start.IsZero() {
		where += " AND sales.sale_date >= ?"
		args = append(args, f.Start.UTC())
	}
	if !f.End.IsZero() {
		where += " AND sales.sale_date <= ?"
		args = append(args, f.End.UTC())
	}

	var total int
	count := s.DB.Rebind("SELECT COUNT(*) FROM sales JOIN goods ON goods.id = sales.goods_id WHERE " + where)
	if err := db.GetContext(ctx, &total, count, args...); err != nil {
		return nil, 0, dbError(err, nil, "count sales")
	}
	items, err := s.salesWhere(ctx, where, args, "sales.sale_date DESC, sales.id", limit, Offset(page, limit))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) GetSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error) {
	items, err := s.salesWhere(ctx, "sales.id = ? AND sales.user_id = ?", []any{salesID, userID}, "sales.id", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.ErrSalesNotFound
	}
	return &items[0], nil
}

// SalesHistory returns the sales of one goods on or after since, oldest first.
func (s *Store) SalesHistory(ctx context.Context, userID, goodsID uuid.UUID, since time.Time) ([]fields.Sales, error) {
	return s.salesWhere(ctx, "sales.user_id = ? AND sales.goods_id = ? AND sales.sale_date >= ?",
		[]any{userID, goodsID, since.UTC()}, "sales.sale_date ASC", 0, 0)
}

func (s *Store) goodsForUpdate(ctx context.Context, tx *sqlx.Tx, userID, goodsID uuid.UUID) (*fields.Goods, error) {
	var goods fields.Goods
	stmt := tx.Rebind("SELECT " + goodsColumns + " FROM goods WHERE id = ? AND user_id = ?" + s.forUpdate(""))
	if err := tx.GetContext(ctx, &goods, stmt, goodsID, userID); err != nil {
		return nil, dbError(err, apperr.ErrGoodsNotFound, "get goods")
	}
	return &goods, nil
}

// salesForUpdate reads a sale inside tx, locking its row on postgres.
func (s *Store) salesForUpdate(ctx context.Context, tx *sqlx.Tx, userID, salesID uuid.UUID) (*fields.Sales, error) {
	var row salesRow
	stmt := tx.Rebind(salesSelect + " WHERE sales.id = ? AND sales.user_id = ?" + s.forUpdate(" OF sales"))
	if err := tx.GetContext(ctx, &row, stmt, salesID, userID); err != nil {
		return nil, dbError(err, apperr.ErrSalesNotFound, "get sales")
	}
	sale := row.toSales()
	return &sale, nil
}

// takeStock decrements stock only when enough is on hand.
func takeStock(ctx context.Context, tx *sqlx.Tx, goods *fields.Goods, qty int) error {
	stmt := tx.Rebind("UPDATE goods SET stock_quantity = stock_quantity - ? WHERE id = ? AND user_id = ? AND stock_quantity >= ?")
	res, err := tx.ExecContext(ctx, stmt, qty, goods.ID, goods.UserID, qty)
	if err != nil {
		return dbError(err, nil, "update stock")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.WithFields(apperr.ErrInsufficientStock, map[string]any{
			"goods_id":  goods.ID.String(),
			"available": goods.StockQuantity,
			"requested": qty,
		})
	}
	return nil
}

func returnStock(ctx context.Context, tx *sqlx.Tx, goodsID, userID uuid.UUID, qty int) error {
	stmt := tx.Rebind("UPDATE goods SET stock_quantity = stock_quantity + ? WHERE id = ? AND user_id = ?")
	if _, err := tx.ExecContext(ctx, stmt, qty, goodsID, userID); err != nil {
		return dbError(err, nil, "update stock")
	}
	return nil
}

// CreateSales records a sale and takes its quantity out of stock in one
// transaction. total_profit is quantity times the current goods price.
func (s *Store) CreateSales(ctx context.Context, userID uuid.UUID, in fields.SalesCreate) (*fields.Sales, error) {
	if _, err := s.ensureDB(); err != nil {
		return nil, err
	}
	saleDate := s.clock()
	if in.SaleDate != "" {
		d, err := fields.ParseDate(in.SaleDate)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrValidation, err.Error())
		}
		saleDate = d
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError(err, nil, "begin tx")
	}
	defer rollback(tx)

	goods, err := s.goodsForUpdate(ctx, tx, userID, in.GoodsID)
	if err != nil {
		return nil, err
	}
	if err := takeStock(ctx, tx, goods, in.Quantity); err != nil {
		return nil, err
	}

	profit := goods.Price * float64(in.Quantity)
	sale := fields.Sales{
		ID:          uuid.New(),
		UserID:      userID,
		GoodsID:     goods.ID,
		Quantity:    in.Quantity,
		SaleDate:    saleDate,
		TotalProfit: &profit,
		CreatedAt:   s.clock(),
		Goods:       fields.GoodsRef{ID: goods.ID, Name: goods.Name, Category: goods.Category},
	}
	stmt := tx.Rebind(`INSERT INTO sales(id, user_id, goods_id, quantity, sale_date, total_profit, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, stmt, sale.ID, sale.UserID, sale.GoodsID, sale.Quantity, sale.SaleDate, sale.TotalProfit, sale.CreatedAt); err != nil {
		return nil, dbError(err, nil, "create sales")
	}
	if err := tx.Commit(); err != nil {
		return nil, dbError(err, nil, "commit sales")
	}
	return &sale, nil
}

// UpdateSales changes quantity and/or sale date. The sale is re-read and
// locked inside the transaction so the stock delta is applied against the
// committed quantity. Profit is recomputed at the current price.
func (s *Store) UpdateSales(ctx context.Context, userID, salesID uuid.UUID, in fields.SalesUpdate) (*fields.Sales, error) {
	if _, err := s.ensureDB(); err != nil {
		return nil, err
	}
	var newDate *time.Time
	if in.SaleDate != nil {
		d, err := fields.ParseDate(*in.SaleDate)
		if err != nil {
			return nil, apperr.Wrap(err, apperr.ErrValidation, err.Error())
		}
		newDate = &d
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError(err, nil, "begin tx")
	}
	defer rollback(tx)

	current, err := s.salesForUpdate(ctx, tx, userID, salesID)
	if err != nil {
		return nil, err
	}
	qty := current.Quantity
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if newDate != nil {
		current.SaleDate = *newDate
	}

	goods, err := s.goodsForUpdate(ctx, tx, userID, current.GoodsID)
	if err != nil {
		return nil, err
	}
	switch delta := qty - current.Quantity; {
	case delta > 0:
		if err := takeStock(ctx, tx, goods, delta); err != nil {
			return nil, err
		}
	case delta < 0:
		if err := returnStock(ctx, tx, goods.ID, userID, -delta); err != nil {
			return nil, err
		}
	}

	profit := goods.Price * float64(qty)
	stmt := tx.Rebind("UPDATE sales SET quantity = ?, sale_date = ?, total_profit = ? WHERE id = ? AND user_id = ?")
	if _, err := tx.ExecContext(ctx, stmt, qty, current.SaleDate, profit, salesID, userID); err != nil {
		return nil, dbError(err, nil, "update sales")
	}
	if err := tx.Commit(); err != nil {
		return nil, dbError(err, nil, "commit sales")
	}

	current.Quantity = qty
	current.TotalProfit = &profit
	return current, nil
}

// DeleteSales removes a sale and puts its quantity back into stock. Stock is
// only returned by the transaction that actually deleted the row.
func (s *Store) DeleteSales(ctx context.Context, userID, salesID uuid.UUID) (*fields.Sales, error) {
	if _, err := s.ensureDB(); err != nil {
		return nil, err
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError(err, nil, "begin tx")
	}
	defer rollback(tx)

	current, err := s.salesForUpdate(ctx, tx, userID, salesID)
	if err != nil {
		return nil, err
	}
	stmt := tx.Rebind("DELETE FROM sales WHERE id = ? AND user_id = ?")
	res, err := tx.ExecContext(ctx, stmt, salesID, userID)
	if err != nil {
		return nil, dbError(err, nil, "delete sales")
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, dbError(err, nil, "delete sales")
	} else if n == 0 {
		return nil, apperr.ErrSalesNotFound
	}
	if err := returnStock(ctx, tx, current.GoodsID, userID, current.Quantity); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, dbError(err, nil, "commit sales")
	}
	return current, nil
}
