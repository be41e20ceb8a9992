package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/marketplace/internal/models"
)

type discountRepoMock struct {
	mock.Mock
}

func (m *discountRepoMock) ListActiveDiscounts(ctx context.Context, variationID uint, dayOfWeek int) ([]models.Discount, error) {
	args := m.Called(ctx, variationID, dayOfWeek)
	if v := args.Get(0); v != nil {
		return v.([]models.Discount), args.Error(1)
	}
	return nil, args.Error(1)
}

func strp(s string) *string { return &s }

func TestPriceWithDiscount(t *testing.T) {
	ctx := context.Background()

	t.Run("highest discount wins", func(t *testing.T) {
		repo := new(discountRepoMock)
		repo.On("ListActiveDiscounts", ctx, uint(4), 1).Return([]models.Discount{
			{DayOfWeek: 1, Percentage: 10, IsActive: true},
			{DayOfWeek: 1, Percentage: 25, IsActive: true},
		}, nil).Once()

		q := NewResolver(repo, zap.NewNop()).PriceWithDiscount(ctx, 4, "2024-06-03", 100)
		assert.Equal(t, 75.0, q.FinalPrice)
		assert.Equal(t, 25.0, q.DiscountPercentage)
		repo.AssertExpectations(t)
	})

	t.Run("window excludes date", func(t *testing.T) {
		repo := new(discountRepoMock)
		repo.On("ListActiveDiscounts", ctx, uint(4), 1).Return([]models.Discount{
			{DayOfWeek: 1, Percentage: 50, IsActive: true, StartDate: strp("2024-06-03"), EndDate: strp("2024-06-03")},
		}, nil).Once()

		q := NewResolver(repo, zap.NewNop()).PriceWithDiscount(ctx, 4, "2024-06-10", 100)
		assert.Equal(t, 100.0, q.FinalPrice)
		assert.Zero(t, q.DiscountPercentage)
	})

	t.Run("lookup error falls back to base", func(t *testing.T) {
		repo := new(discountRepoMock)
		repo.On("ListActiveDiscounts", ctx, uint(4), 1).Return(nil, errors.New("db down")).Once()

		q := NewResolver(repo, zap.NewNop()).PriceWithDiscount(ctx, 4, "2024-06-03", 80)
		assert.Equal(t, 80.0, q.FinalPrice)
		repo.AssertExpectations(t)
	})

	t.Run("bad date never queries", func(t *testing.T) {
		repo := new(discountRepoMock)

		q := NewResolver(repo, zap.NewNop()).PriceWithDiscount(ctx, 4, "03/06/2024", 80)
		assert.Equal(t, 80.0, q.FinalPrice)
		repo.AssertNotCalled(t, "ListActiveDiscounts", mock.Anything, mock.Anything, mock.Anything)
	})
}
