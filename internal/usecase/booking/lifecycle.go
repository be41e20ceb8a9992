package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/audit"
	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/domain/pricing"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/infra/realtime"
	"github.com/BruksfildServices01/marketplace/internal/metrics"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type Pricer interface {
	PriceWithDiscount(ctx context.Context, variationID uint, date string, basePrice float64) pricing.Quote
}

// ======================================================
// FAN-OUT
// ======================================================

// Change describes a committed transition for the after-commit effects.
type Change struct {
	Transition string
	Event      string
	Booking    *models.Booking
	ActorID    uint
	Metadata   map[string]any
}

// Fanout runs the best-effort effects of a committed transition. None of
// them can fail the request.
type Fanout struct {
	publisher realtime.Publisher
	cache     cache.Cache
	audit     *audit.Dispatcher
	log       *zap.Logger
}

func NewFanout(
	publisher realtime.Publisher,
	c cache.Cache,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *Fanout {
	return &Fanout{
		publisher: publisher,
		cache:     c,
		audit:     audit,
		log:       log,
	}
}

func (f *Fanout) Committed(ctx context.Context, ch Change) {
	b := ch.Booking

	metrics.IncTransition(ch.Transition)

	f.cache.DeleteByPattern(ctx, cache.AvailabilityPattern(b.ProviderID))

	f.publisher.Publish(ctx, realtime.Event{
		Name:      ch.Event,
		SubjectID: b.ID,
		Status:    b.Status,
		UserIDs:   []uint{b.ProviderID, b.ClientID},
		Data:      b,
	})

	f.audit.Dispatch(audit.Event{
		UserID:   &ch.ActorID,
		Action:   "booking_" + ch.Transition,
		Entity:   "booking",
		EntityID: &b.ID,
		Metadata: ch.Metadata,
	})

	f.log.Info("booking transition",
		zap.String("transition", ch.Transition),
		zap.Uint("booking_id", b.ID),
		zap.String("status", b.Status),
		zap.Uint("actor_id", ch.ActorID),
	)
}

// ======================================================
// HELPERS
// ======================================================

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound("booking_not_found", "booking not found")
	}
	return err
}

// inProviderUnit loads the booking, then reloads it inside the provider's
// serialized transaction so guards see the latest committed state.
func inProviderUnit(
	ctx context.Context,
	repo domain.Repository,
	bookingID uint,
	fn func(tx domain.Repository, b *models.Booking) error,
) (*models.Booking, error) {

	peek, err := repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFound(err)
	}

	var out *models.Booking
	err = repo.Transaction(ctx, peek.ProviderID, func(tx domain.Repository) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return notFound(err)
		}
		if err := fn(tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func notify(
	ctx context.Context,
	tx domain.Repository,
	userID uint,
	b *models.Booking,
	kind string,
	message string,
) error {
	n := &models.Notification{
		UserID:    userID,
		BookingID: &b.ID,
		Type:      kind,
		Message:   message,
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	return nil
}

func requireProvider(b *models.Booking, actorID uint) error {
	if b.ProviderID != actorID {
		return httperr.ErrForbidden("not_booking_provider", "only the provider of this booking can do that")
	}
	return nil
}

func requireClient(b *models.Booking, actorID uint) error {
	if b.ClientID != actorID {
		return httperr.ErrForbidden("not_booking_client", "only the client of this booking can do that")
	}
	return nil
}

func describe(b *models.Booking) string {
	name := b.Service.Name
	if name == "" {
		name = fmt.Sprintf("service #%d", b.ServiceID)
	}
	return fmt.Sprintf("%s on %s at %s", name, b.StartDate, b.StartTime)
}
