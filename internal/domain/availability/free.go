package availability

import (
	"time"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeTimes steps through each weekly slot of date in blocks of
// durationMinutes and keeps the blocks that overlap no busy interval.
func FreeTimes(
	date string,
	slots []models.AvailabilitySlot,
	busy []booking.Interval,
	durationMinutes int,
) []TimeSlot {

	out := []TimeSlot{}
	if durationMinutes <= 0 {
		return out
	}
	step := time.Duration(durationMinutes) * time.Minute

	for _, s := range slots {
		if !s.IsActive {
			continue
		}
		dayStart, err := calendar.At(date, s.StartTime)
		if err != nil {
			continue
		}
		dayEnd, err := calendar.At(date, s.EndTime)
		if err != nil {
			continue
		}

		for cur := dayStart; !cur.Add(step).After(dayEnd); cur = cur.Add(step) {
			block := booking.Interval{Start: cur, End: cur.Add(step)}

			conflict := false
			for _, b := range busy {
				if block.Overlaps(b) {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}

			out = append(out, TimeSlot{
				Start: calendar.FormatClock(block.Start),
				End:   calendar.FormatClock(block.End),
			})
		}
	}
	return out
}
