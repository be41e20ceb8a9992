package pricing

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	domain "github.com/BruksfildServices01/marketplace/internal/domain/pricing"
)

type Resolver struct {
	repo domain.Repository
	log  *zap.Logger
}

func NewResolver(repo domain.Repository, log *zap.Logger) *Resolver {
	return &Resolver{repo: repo, log: log}
}

// PriceWithDiscount applies the best discount for the variation on date.
// It never fails: any lookup problem quotes the base price.
func (r *Resolver) PriceWithDiscount(
	ctx context.Context,
	variationID uint,
	date string,
	basePrice float64,
) domain.Quote {

	weekday, err := calendar.Weekday(date)
	if err != nil {
		r.log.Warn("discount lookup skipped, bad date", zap.String("date", date), zap.Error(err))
		return domain.Apply(basePrice, 0)
	}

	discounts, err := r.repo.ListActiveDiscounts(ctx, variationID, weekday)
	if err != nil {
		r.log.Warn("discount lookup failed, using base price",
			zap.Uint("variation_id", variationID),
			zap.String("date", date),
			zap.Error(err),
		)
		return domain.Apply(basePrice, 0)
	}

	best := domain.Best(discounts, date)
	if best == nil {
		return domain.Apply(basePrice, 0)
	}
	return domain.Apply(basePrice, best.Percentage)
}
