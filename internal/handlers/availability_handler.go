package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/domain/availability"
	"github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type AvailabilityHandler struct {
	db       *gorm.DB
	bookings booking.Repository
	cache    cache.Cache
}

func NewAvailabilityHandler(db *gorm.DB, bookings booking.Repository, c cache.Cache) *AvailabilityHandler {
	return &AvailabilityHandler{db: db, bookings: bookings, cache: c}
}

type CreateSlotRequest struct {
	DayOfWeek *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// BusyPeriod is a confirmed booking seen from the outside.
type BusyPeriod struct {
	BookingID uint    `json:"booking_id"`
	StartDate string  `json:"start_date"`
	StartTime string  `json:"start_time"`
	EndDate   *string `json:"end_date,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

type AvailabilityResponse struct {
	ProviderID uint                      `json:"provider_id"`
	Date       string                    `json:"date,omitempty"`
	Slots      []models.AvailabilitySlot `json:"slots"`
	Busy       []BusyPeriod              `json:"busy"`
	Free       []availability.TimeSlot   `json:"free,omitempty"`
}

// Get answers the weekly slots of a provider. With ?date= it narrows to
// that weekday and lists the confirmed bookings touching the date; adding
// ?service_variation_id= also computes the free start times.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	providerID, ok := queryID(c, "provider_id")
	if !ok {
		httperr.BadRequest(c, "missing_provider_id", "provider_id is required")
		return
	}

	date := c.Query("date")
	key := cache.AvailabilityKey(providerID)
	if date != "" {
		if !calendar.ValidDate(date) {
			httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		key += ":" + date
	}

	variationID, withFree := queryID(c, "service_variation_id")
	withFree = withFree && date != ""
	if withFree {
		key += fmt.Sprintf(":v%d", variationID)
	}

	var resp AvailabilityResponse
	if h.cache.Get(ctx, key, &resp) {
		c.JSON(http.StatusOK, resp)
		return
	}

	resp = AvailabilityResponse{
		ProviderID: providerID,
		Date:       date,
		Slots:      []models.AvailabilitySlot{},
		Busy:       []BusyPeriod{},
	}

	q := h.db.WithContext(ctx).
		Where("provider_id = ? AND is_active = ?", providerID, true)
	if date != "" {
		weekday, _ := calendar.Weekday(date)
		q = q.Where("day_of_week = ?", weekday)
	}
	if err := q.Order("day_of_week ASC, start_time ASC").Find(&resp.Slots).Error; err != nil {
		httperr.Internal(c, "failed_to_list_availability", "could not load availability")
		return
	}

	if date != "" {
		busy, err := h.busyOn(c, providerID, date)
		if err != nil {
			httperr.Internal(c, "failed_to_list_availability", "could not load availability")
			return
		}

		intervals := make([]booking.Interval, 0, len(busy))
		for i := range busy {
			b := &busy[i]
			resp.Busy = append(resp.Busy, BusyPeriod{
				BookingID: b.ID,
				StartDate: b.StartDate,
				StartTime: b.StartTime,
				EndDate:   b.EndDate,
				EndTime:   b.EndTime,
			})
			if iv, err := booking.BookingInterval(b); err == nil {
				intervals = append(intervals, iv)
			}
		}

		if withFree {
			var variation models.ServiceVariation
			if err := h.db.WithContext(ctx).First(&variation, variationID).Error; err != nil {
				httperr.NotFound(c, "variation_not_found", "service variation not found")
				return
			}
			resp.Free = availability.FreeTimes(date, resp.Slots, intervals, variation.DurationMinutes)
		}
	}

	h.cache.Set(ctx, key, resp, cache.AvailabilityTTL)
	c.JSON(http.StatusOK, resp)
}

// busyOn loads the confirmed bookings whose interval touches date,
// including long ones that started days earlier.
func (h *AvailabilityHandler) busyOn(c *gin.Context, providerID uint, date string) ([]models.Booking, error) {
	dayStart, err := calendar.At(date, "00:00")
	if err != nil {
		return nil, err
	}
	day := booking.Interval{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	candidates, err := h.bookings.ListCommitments(c.Request.Context(), booking.CommitmentFilter{
		ProviderID: providerID,
		Statuses:   []booking.Status{booking.StatusConfirmed},
		FromDate:   date,
		ToDate:     date,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Booking, 0, len(candidates))
	for _, b := range candidates {
		iv, err := booking.BookingInterval(&b)
		if err != nil {
			if b.StartDate == date {
				out = append(out, b)
			}
			continue
		}
		if iv.Overlaps(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (h *AvailabilityHandler) Create(c *gin.Context) {
	providerID := currentUserID(c)

	var req CreateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	if !calendar.ValidClock(req.StartTime) || !calendar.ValidClock(req.EndTime) {
		httperr.BadRequest(c, "invalid_time", "times must be HH:MM")
		return
	}
	if req.EndTime <= req.StartTime {
		httperr.BadRequest(c, "end_before_start", "end_time must be after start_time")
		return
	}

	var overlapping int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&models.AvailabilitySlot{}).
		Where("provider_id = ? AND day_of_week = ? AND is_active = ?", providerID, *req.DayOfWeek, true).
		Where("start_time < ? AND end_time > ?", req.EndTime, req.StartTime).
		Count(&overlapping).Error; err != nil {

		httperr.Internal(c, "failed_to_create_slot", "could not check existing slots")
		return
	}
	if overlapping > 0 {
		httperr.Write(c, http.StatusConflict, "slot_overlaps", "the slot overlaps another slot on that day")
		return
	}

	slot := models.AvailabilitySlot{
		ProviderID: providerID,
		DayOfWeek:  *req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		IsActive:   true,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&slot).Error; err != nil {
		httperr.Internal(c, "failed_to_create_slot", "could not create slot")
		return
	}

	h.cache.DeleteByPattern(c.Request.Context(), cache.AvailabilityPattern(providerID))
	c.JSON(http.StatusCreated, slot)
}

func (h *AvailabilityHandler) Delete(c *gin.Context) {
	providerID := currentUserID(c)

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND provider_id = ?", id, providerID).
		Delete(&models.AvailabilitySlot{})
	if res.Error != nil {
		httperr.Internal(c, "failed_to_delete_slot", "could not delete slot")
		return
	}
	if res.RowsAffected == 0 {
		httperr.NotFound(c, "slot_not_found", "slot not found")
		return
	}

	h.cache.DeleteByPattern(c.Request.Context(), cache.AvailabilityPattern(providerID))
	c.Status(http.StatusNoContent)
}
