package booking

import (
	"strings"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
)

// ValidateSlot checks date and time formats and that an explicit end,
// when given, is complete and after the start.
func ValidateSlot(s Slot) error {
	if !calendar.ValidDate(s.StartDate) {
		return httperr.ErrValidation("invalid_date", "date must be YYYY-MM-DD")
	}
	if !calendar.ValidClock(s.StartTime) {
		return httperr.ErrValidation("invalid_time", "time must be HH:MM")
	}

	if (s.EndDate == nil) != (s.EndTime == nil) {
		return httperr.ErrValidation("incomplete_end", "end date and end time must be provided together")
	}
	if s.EndDate == nil {
		return nil
	}

	if !calendar.ValidDate(*s.EndDate) {
		return httperr.ErrValidation("invalid_end_date", "end date must be YYYY-MM-DD")
	}
	if !calendar.ValidClock(*s.EndTime) {
		return httperr.ErrValidation("invalid_end_time", "end time must be HH:MM")
	}

	iv, err := IntervalOf(s, 0)
	if err != nil {
		return httperr.ErrValidation("invalid_slot", err.Error())
	}
	if !iv.End.After(iv.Start) {
		return httperr.ErrValidation("end_before_start", "end must be after start")
	}
	return nil
}

// ParseSuggestion validates an optional suggested slot. Both fields or
// neither must be given; blank strings count as absent.
func ParseSuggestion(date, clock string) (*Suggestion, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)

	if date == "" && clock == "" {
		return nil, nil
	}
	if date == "" || clock == "" {
		return nil, httperr.ErrValidation("incomplete_suggestion", "suggested date and time must be provided together")
	}
	if !calendar.ValidDate(date) {
		return nil, httperr.ErrValidation("invalid_suggested_date", "suggested date must be YYYY-MM-DD")
	}
	if !calendar.ValidClock(clock) {
		return nil, httperr.ErrValidation("invalid_suggested_time", "suggested time must be HH:MM")
	}
	return &Suggestion{Date: date, Time: clock}, nil
}
