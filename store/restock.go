package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/umkm-labs/warung/apperr"
	"github.com/umkm-labs/warung/fields"
)

const restockColumns = "id, user_id, goods_id, total_quantity, future_preds, created_at"

func (s *Store) ListRestock(ctx context.Context, userID uuid.UUID) ([]fields.RestockInference, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	items := []fields.RestockInference{}
	stmt := s.DB.Rebind("SELECT " + restockColumns + " FROM restock_inferences WHERE user_id = ? ORDER BY total_quantity DESC, created_at DESC")
	if err := db.SelectContext(ctx, &items, stmt, userID); err != nil {
		return nil, dbError(err, nil, "list restock")
	}
	return items, nil
}

func (s *Store) GetRestockByGoods(ctx context.Context, userID, goodsID uuid.UUID) (*fields.RestockInference, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	var item fields.RestockInference
	stmt := s.DB.Rebind("SELECT " + restockColumns + " FROM restock_inferences WHERE goods_id = ? AND user_id = ?")
	if err := db.GetContext(ctx, &item, stmt, goodsID, userID); err != nil {
		return nil, dbError(err, apperr.ErrRestockNotFound, "get restock")
	}
	return &item, nil
}

// CreateRestock inserts a manual inference. A goods holds at most one.
func (s *Store) CreateRestock(ctx context.Context, userID uuid.UUID, in fields.RestockInferenceCreate) (*fields.RestockInference, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	if _, err := s.GetGoods(ctx, userID, in.GoodsID); err != nil {
		return nil, err
	}
	item := &fields.RestockInference{
		ID:            uuid.New(),
		UserID:        userID,
		GoodsID:       in.GoodsID,
		TotalQuantity: in.TotalQuantity,
		FuturePreds:   in.FuturePreds,
		CreatedAt:     s.clock(),
	}
	stmt := s.DB.Rebind("INSERT INTO restock_inferences(" + restockColumns + ") VALUES(?, ?, ?, ?, ?, ?)")
	if _, err := db.ExecContext(ctx, stmt, item.ID, item.UserID, item.GoodsID, item.TotalQuantity, item.FuturePreds, item.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(err, apperr.ErrConflict, "restock inference already exists for goods")
		}
		return nil, dbError(err, nil, "create restock")
	}
	return item, nil
}

// UpsertRestock replaces the inference of a goods with a freshly computed one.
func (s *Store) UpsertRestock(ctx context.Context, userID, goodsID uuid.UUID, qty int, preds fields.JSONMap) (*fields.RestockInference, error) {
	db, err := s.ensureDB()
	if err != nil {
		return nil, err
	}
	item := &fields.RestockInference{
		ID:            uuid.New(),
		UserID:        userID,
		GoodsID:       goodsID,
		TotalQuantity: qty,
		FuturePreds:   preds,
		CreatedAt:     s.clock(),
	}
	stmt := s.DB.Rebind(`INSERT INTO restock_inferences(` + restockColumns + `) VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT (goods_id) DO UPDATE SET
			total_quantity = excluded.total_quantity,
			future_preds = excluded.future_preds,
			created_at = excluded.created_at`)
	if _, err := db.ExecContext(ctx, stmt, item.ID, item.UserID, item.GoodsID, item.TotalQuantity, item.FuturePreds, item.CreatedAt); err != nil {
		return nil, dbError(err, nil, "upsert restock")
	}
	return s.GetRestockByGoods(ctx, userID, goodsID)
}

func (s *Store) UpdateRestock(ctx context.Context, userID, goodsID uuid.UUID, in fields.RestockInferenceUpdate) (*fields.RestockInference, error) {
	current, err := s.GetRestockByGoods(ctx, userID, goodsID)
	if err != nil {
		return nil, err
	}
	if in.TotalQuantity != nil {
		current.TotalQuantity = *in.TotalQuantity
	}
	if in.FuturePreds != nil {
		current.FuturePreds = in.FuturePreds
	}
	stmt := s.DB.Rebind("UPDATE restock_inferences SET total_quantity = ?, future_preds = ? WHERE goods_id = ? AND user_id = ?")
	if _, err := s.DB.ExecContext(ctx, stmt, current.TotalQuantity, current.FuturePreds, goodsID, userID); err != nil {
		return nil, dbError(err, nil, "update restock")
	}
	return current, nil
}

func (s *Store) DeleteRestock(ctx context.Context, userID, goodsID uuid.UUID) (*fields.RestockInference, error) {
	current, err := s.GetRestockByGoods(ctx, userID, goodsID)
	if err != nil {
		return nil, err
	}
	stmt := s.DB.Rebind("DELETE FROM restock_inferences WHERE goods_id = ? AND user_id = ?")
	if _, err := s.DB.ExecContext(ctx, stmt, goodsID, userID); err != nil {
		return nil, dbError(err, nil, "delete restock")
	}
	return current, nil
}
