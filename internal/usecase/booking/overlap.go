package booking

import (
	"context"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
)

// Statuses that can collide with a slot at each step.
var (
	CreationConflictStatuses   = []domain.Status{domain.StatusConfirmed}
	ApprovalConflictStatuses   = []domain.Status{domain.StatusPending, domain.StatusConfirmed}
	SuggestionConflictStatuses = []domain.Status{domain.StatusConfirmed}
)

type OverlapQuery struct {
	ProviderID      uint
	Slot            domain.Slot
	DurationMinutes int
	ExcludeID       *uint
	Statuses        []domain.Status
}

// HasOverlap reports whether the slot intersects any of the provider's
// bookings in the given statuses. Candidates that cannot be resolved to an
// interval are ignored.
func HasOverlap(ctx context.Context, repo domain.Repository, q OverlapQuery) (bool, error) {
	candidate, err := domain.IntervalOf(q.Slot, q.DurationMinutes)
	if err != nil {
		return false, err
	}

	existing, err := repo.ListCommitments(ctx, domain.CommitmentFilter{
		ProviderID: q.ProviderID,
		Statuses:   q.Statuses,
		ExcludeID:  q.ExcludeID,
		FromDate:   q.Slot.StartDate,
		ToDate:     calendar.FormatDate(candidate.End),
	})
	if err != nil {
		return false, err
	}

	for i := range existing {
		iv, err := domain.BookingInterval(&existing[i])
		if err != nil {
			continue
		}
		if candidate.Overlaps(iv) {
			return true, nil
		}
	}
	return false, nil
}
