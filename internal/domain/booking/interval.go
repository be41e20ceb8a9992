package booking

import (
	"errors"
	"time"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

var ErrNoExtent = errors.New("booking has neither an end nor a duration")

const minutesPerDay = 24 * 60

// Interval is a half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses the half-open test, so intervals that only touch do not
// overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Slot is the calendar shape shared by stored bookings and new requests.
type Slot struct {
	StartDate string
	StartTime string
	EndDate   *string
	EndTime   *string
}

// IntervalOf resolves a slot into an interval. An explicit end wins over
// the duration; a non-positive duration with no end is ErrNoExtent.
func IntervalOf(s Slot, durationMinutes int) (Interval, error) {
	start, err := calendar.At(s.StartDate, s.StartTime)
	if err != nil {
		return Interval{}, err
	}

	if s.EndDate != nil && s.EndTime != nil {
		end, err := calendar.At(*s.EndDate, *s.EndTime)
		if err != nil {
			return Interval{}, err
		}
		return Interval{Start: start, End: end}, nil
	}

	if durationMinutes <= 0 {
		return Interval{}, ErrNoExtent
	}
	return Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}, nil
}

func SlotOf(b *models.Booking) Slot {
	return Slot{
		StartDate: b.StartDate,
		StartTime: b.StartTime,
		EndDate:   b.EndDate,
		EndTime:   b.EndTime,
	}
}

// BookingInterval resolves a stored booking using its variation duration.
func BookingInterval(b *models.Booking) (Interval, error) {
	return IntervalOf(SlotOf(b), b.ServiceVariation.DurationMinutes)
}

// LookbackDays is how many days before a date a booking lasting up to
// longestMinutes may start and still reach into that date.
func LookbackDays(longestMinutes int) int {
	days := (longestMinutes + minutesPerDay - 1) / minutesPerDay
	if days < 1 {
		return 1
	}
	return days
}
