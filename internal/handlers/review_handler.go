package handlers

import (
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/marketplace/internal/domain/booking"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type ReviewHandler struct {
	db *gorm.DB
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{db: db}
}

// --------- Requests ---------

type CreateReviewRequest struct {
	BookingID uint   `json:"booking_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

// --------- Handlers ---------

func (h *ReviewHandler) List(c *gin.Context) {
	serviceID, byService := queryID(c, "service_id")
	providerID, byProvider := queryID(c, "provider_id")
	if !byService && !byProvider {
		httperr.BadRequest(c, "missing_filter", "service_id or provider_id is required")
		return
	}

	q := h.db.WithContext(c.Request.Context()).Preload("Client")
	if byService {
		q = q.Where("service_id = ?", serviceID)
	}
	if byProvider {
		q = q.Where("provider_id = ?", providerID)
	}

	var reviews []models.Review
	if err := q.Order("created_at DESC").Find(&reviews).Error; err != nil {
		httperr.Internal(c, "failed_to_list_reviews", "could not list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"total":   len(reviews),
		"average": averageRating(reviews),
	})
}

func (h *ReviewHandler) Create(c *gin.Context) {
	clientID := currentUserID(c)

	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	var b models.Booking
	if err := h.db.WithContext(c.Request.Context()).First(&b, req.BookingID).Error; err != nil {
		if httperr.IsNotFound(err) {
			httperr.NotFound(c, "booking_not_found", "booking not found")
			return
		}
		httperr.Internal(c, "internal_error", "internal server error")
		return
	}

	if b.ClientID != clientID {
		httperr.Forbidden(c, "not_booking_client", "only the client of this booking can review it")
		return
	}
	if domain.Status(b.Status) != domain.StatusCompleted {
		httperr.BadRequest(c, "booking_not_completed", "only completed bookings can be reviewed")
		return
	}

	var existing int64
	if err := h.db.Model(&models.Review{}).Where("booking_id = ?", b.ID).Count(&existing).Error; err != nil {
		httperr.Internal(c, "failed_to_create_review", "could not check existing reviews")
		return
	}
	if existing > 0 {
		httperr.Write(c, http.StatusConflict, "review_exists", "this booking was already reviewed")
		return
	}

	r := models.Review{
		BookingID:  b.ID,
		ServiceID:  b.ServiceID,
		ProviderID: b.ProviderID,
		ClientID:   clientID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}
	if err := h.db.WithContext(c.Request.Context()).Omit("Client").Create(&r).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Write(c, http.StatusConflict, "review_exists", "this booking was already reviewed")
			return
		}
		httperr.Internal(c, "failed_to_create_review", "could not create review")
		return
	}

	c.JSON(http.StatusCreated, r)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	r, ok := h.owned(c)
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Rating != nil {
		r.Rating = *req.Rating
	}
	if req.Comment != nil {
		r.Comment = strings.TrimSpace(*req.Comment)
	}

	if err := h.db.WithContext(c.Request.Context()).Omit("Client").Save(r).Error; err != nil {
		httperr.Internal(c, "failed_to_update_review", "could not update review")
		return
	}

	c.JSON(http.StatusOK, r)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	r, ok := h.owned(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(r).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_review", "could not delete review")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) owned(c *gin.Context) (*models.Review, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var r models.Review
	if err := h.db.WithContext(c.Request.Context()).First(&r, id).Error; err != nil {
		httperr.NotFound(c, "review_not_found", "review not found")
		return nil, false
	}
	if r.ClientID != currentUserID(c) {
		httperr.Forbidden(c, "not_review_author", "only the author can change this review")
		return nil, false
	}
	return &r, true
}

func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
