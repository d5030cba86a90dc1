// Package dashboard serves aggregate views over a user's inventory.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/umkm-labs/warung/fields"
)

const (
	defaultDays = 30
	maxDays     = 365
)

// Store is what the dashboard reads.
type Store interface {
	Summary(ctx context.Context, userID uuid.UUID, since time.Time, lowStock int) (*fields.Summary, error)
	ListLowStock(ctx context.Context, userID uuid.UUID, threshold, limit, offset int) ([]fields.Goods, int, error)
}

type Service struct {
	Store             Store
	Logger            *logrus.Logger
	LowStockThreshold int
	Now               func() time.Time
}

func (s Service) calculateOffset(page, pageSize int) uint {
	if page <= 1 {
		return 0
	}
	return uint((page - 1) * pageSize)
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) threshold() int {
	if s.LowStockThreshold > 0 {
		return s.LowStockThreshold
	}
	return 5
}
