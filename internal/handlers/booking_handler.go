package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/httpresp"
	ucBooking "github.com/BruksfildServices01/marketplace/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	create           *ucBooking.CreateBooking
	approve          *ucBooking.ApproveBooking
	reject           *ucBooking.RejectBooking
	cancel           *ucBooking.CancelBooking
	complete         *ucBooking.CompleteBooking
	acceptSuggestion *ucBooking.AcceptSuggestion
	rejectSuggestion *ucBooking.RejectSuggestion
	list             *ucBooking.ListBookings
}

func NewBookingHandler(
	create *ucBooking.CreateBooking,
	approve *ucBooking.ApproveBooking,
	reject *ucBooking.RejectBooking,
	cancel *ucBooking.CancelBooking,
	complete *ucBooking.CompleteBooking,
	acceptSuggestion *ucBooking.AcceptSuggestion,
	rejectSuggestion *ucBooking.RejectSuggestion,
	list *ucBooking.ListBookings,
) *BookingHandler {
	return &BookingHandler{
		create:           create,
		approve:          approve,
		reject:           reject,
		cancel:           cancel,
		complete:         complete,
		acceptSuggestion: acceptSuggestion,
		rejectSuggestion: rejectSuggestion,
		list:             list,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	ServiceID          uint    `json:"service_id" binding:"required"`
	ServiceVariationID uint    `json:"service_variation_id" binding:"required"`
	StartDate          string  `json:"start_date" binding:"required"`
	StartTime          string  `json:"start_time" binding:"required"`
	EndDate            *string `json:"end_date"`
	EndTime            *string `json:"end_time"`
}

type RejectBookingRequest struct {
	Reason        string `json:"reason"`
	SuggestedDate string `json:"suggested_date"`
	SuggestedTime string `json:"suggested_time"`
}

// ======================================================
// CREATE
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.create.Execute(c.Request.Context(), ucBooking.CreateBookingInput{
		ClientID:           currentUserID(c),
		ServiceID:          req.ServiceID,
		ServiceVariationID: req.ServiceVariationID,
		StartDate:          req.StartDate,
		StartTime:          req.StartTime,
		EndDate:            emptyToNil(req.EndDate),
		EndTime:            emptyToNil(req.EndTime),
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	body := gin.H{"booking": res.Booking}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	httpresp.Created(c, body)
}

// ======================================================
// LIST
// ======================================================

func (h *BookingHandler) List(c *gin.Context) {
	out, err := h.list.Execute(c.Request.Context(), currentUserID(c), currentRole(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.List(c, out)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *BookingHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	b, err := h.approve.Execute(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	// The body is optional: a bare reject carries no reason.
	var req RejectBookingRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	b, err := h.reject.Execute(c.Request.Context(), currentUserID(c), id, ucBooking.RejectBookingInput{
		Reason:        req.Reason,
		SuggestedDate: req.SuggestedDate,
		SuggestedTime: req.SuggestedTime,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	b, err := h.cancel.Execute(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	b, err := h.complete.Execute(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func (h *BookingHandler) AcceptSuggestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	res, err := h.acceptSuggestion.Execute(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, gin.H{
		"original":    res.Original,
		"alternative": res.Alternative,
	})
}

func (h *BookingHandler) RejectSuggestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	b, err := h.rejectSuggestion.Execute(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, b)
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
