package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

const goodsColumns = "id, user_id, name, category, price, stock_quantity, created_at"

// ListGoods returns one page of the user's goods, newest first, optionally
// filtered by a case-insensitive match on name or category.
func (s *Store) ListGoods(ctx context.Context, userID uuid.UUID, page, limit int, q string) ([]fields.Goods, int, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, 0, err
	}
	page, limit = NormalizePage(page, limit)

	where := "user_id = ?"
	args := []any{userID}
	if strings.TrimSpace(q) != "" {
		where += " AND (" + likeMatch("name") + " OR " + likeMatch("COALESCE(category, '')") + ")"
		pattern := likePattern(q)
		args = append(args, pattern, pattern)
	}

	var total int
	if err := db.GetContext(ctx, &total, s.DB.Rebind("SELECT COUNT(*) FROM goods WHERE "+where), args...); err != nil {
		return nil, 0, dbError(err, nil, "count goods")
	}

	items := []fields.Goods{}
	stmt := s.DB.Rebind("SELECT " + goodsColumns + " FROM goods WHERE " + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?")
	if err := db.SelectContext(ctx, &items, stmt, append(args, limit, Offset(page, limit))...); err != nil {
		return nil, 0, dbError(err, nil, "list goods")
	}
	return items, total, nil
}

// SearchGoods matches goods by name, used by the assistant's lookup tool.
func (s *Store) SearchGoods(ctx context.Context, userID uuid.UUID, name string, limit int) ([]fields.Goods, error) {
	items, _, err := s.ListGoods(ctx, userID, 1, limit, name)
	return items, err
}

func (s *Store) GetGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var goods fields.Goods
	stmt := s.DB.Rebind("SELECT " + goodsColumns + " FROM goods WHERE id = ? AND user_id = ?")
	if err := db.GetContext(ctx, &goods, stmt, goodsID, userID); err != nil {
		return nil, dbError(err, apperr.ErrGoodsNotFound, "get goods")
	}
	return &goods, nil
}

// GetGoodsWithSales returns a goods together with all of its sales, newest first.
func (s *Store) GetGoodsWithSales(ctx context.Context, userID, goodsID uuid.UUID) (*fields.GoodsDetail, error) {
	goods, err := s.GetGoods(ctx, userID, goodsID)
	if err != nil {
		return nil, err
	}
	sales, err := s.salesWhere(ctx, "sales.user_id = ? AND sales.goods_id = ?", []any{userID, goodsID}, "sales.sale_date DESC", 0, 0)
	if err != nil {
		return nil, err
	}
	return &fields.GoodsDetail{Goods: *goods, Sales: sales}, nil
}

func (s *Store) CreateGoods(ctx context.Context, userID uuid.UUID, in fields.GoodsCreate) (*fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	goods := &fields.Goods{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		CreatedAt:     s.clock(),
	}
	stmt := s.DB.Rebind("INSERT INTO goods(" + goodsColumns + ") VALUES(?, ?, ?, ?, ?, ?, ?)")
	_, err = db.ExecContext(ctx, stmt, goods.ID, goods.UserID, goods.Name, goods.Category, goods.Price, goods.StockQuantity, goods.CreatedAt)
	if err != nil {
		return nil, dbError(err, nil, "create goods")
	}
	return goods, nil
}

// UpdateGoods applies the non-nil fields of in.
func (s *Store) UpdateGoods(ctx context.Context, userID, goodsID uuid.UUID, in fields.GoodsUpdate) (*fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	sets := []string{}
	args := []any{}
	if in.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*in.Name))
	}
	if in.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *in.Category)
	}
	if in.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *in.Price)
	}
	if in.StockQuantity != nil {
		sets = append(sets, "stock_quantity = ?")
		args = append(args, *in.StockQuantity)
	}
	if len(sets) == 0 {
		return s.GetGoods(ctx, userID, goodsID)
	}

	stmt := s.DB.Rebind("UPDATE goods SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?")
	res, err := db.ExecContext(ctx, stmt, append(args, goodsID, userID)...)
	if err != nil {
		return nil, dbError(err, nil, "update goods")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrGoodsNotFound
	}
	return s.GetGoods(ctx, userID, goodsID)
}

// DeleteGoods removes a goods and, through cascading keys, its sales and
// restock inference. The deleted row is returned.
func (s *Store) DeleteGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	goods, err := s.GetGoods(ctx, userID, goodsID)
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("DELETE FROM goods WHERE id = ? AND user_id = ?")
	if _, err := db.ExecContext(ctx, stmt, goodsID, userID); err != nil {
		return nil, dbError(err, nil, "delete goods")
	}
	return goods, nil
}

// LowestStockGoods returns up to n goods ordered by ascending stock.
func (s *Store) LowestStockGoods(ctx context.Context, userID uuid.UUID, n int) ([]fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultPageLimit
	}
	items := []fields.Goods{}
	stmt := s.DB.Rebind("SELECT " + goodsColumns + " FROM goods WHERE user_id = ? ORDER BY stock_quantity ASC, name LIMIT ?")
	if err := db.SelectContext(ctx, &items, stmt, userID, n); err != nil {
		return nil, dbError(err, nil, "list low stock goods")
	}
	return items, nil
}

// AllGoods returns every goods the user owns, ordered by name.
func (s *Store) AllGoods(ctx context.Context, userID uuid.UUID) ([]fields.Goods, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	items := []fields.Goods{}
	stmt := s.DB.Rebind("SELECT " + goodsColumns + " FROM goods WHERE user_id = ? ORDER BY name")
	if err := db.SelectContext(ctx, &items, stmt, userID); err != nil {
		return nil, dbError(err, nil, "list goods")
	}
	return items, nil
}

// ListLowStock pages through goods at or below threshold, emptiest first.
func (s *Store) ListLowStock(ctx context.Context, userID uuid.UUID, threshold, limit, offset int) ([]fields.Goods, int, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, 0, err
	}
	var total int
	count := s.DB.Rebind("SELECT COUNT(*) FROM goods WHERE user_id = ? AND stock_quantity <= ?")
	if err := db.GetContext(ctx, &total, count, userID, threshold); err != nil {
		return nil, 0, dbError(err, nil, "count low stock goods")
	}
	items := []fields.Goods{}
	stmt := s.DB.Rebind("SELECT " + goodsColumns + " FROM goods WHERE user_id = ? AND stock_quantity <= ? ORDER BY stock_quantity ASC, name LIMIT ? OFFSET ?")
	if err := db.SelectContext(ctx, &items, stmt, userID, threshold, limit, offset); err != nil {
		return nil, 0, dbError(err, nil, "list low stock goods")
	}
	return items, total, nil
}
