package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/calendar"
	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/models"
	ucPricing "github.com/BruksfildServices01/marketplace/internal/usecase/pricing"
)

type DiscountHandler struct {
	db       *gorm.DB
	resolver *ucPricing.Resolver
}

func NewDiscountHandler(db *gorm.DB, resolver *ucPricing.Resolver) *DiscountHandler {
	return &DiscountHandler{db: db, resolver: resolver}
}

// --------- Requests ---------

type CreateDiscountRequest struct {
	ServiceVariationID uint    `json:"service_variation_id" binding:"required"`
	DayOfWeek          *int    `json:"day_of_week" binding:"required,min=0,max=6"`
	Percentage         float64 `json:"percentage" binding:"required,gt=0,lte=100"`
	StartDate          *string `json:"start_date"`
	EndDate            *string `json:"end_date"`
}

type UpdateDiscountRequest struct {
	DayOfWeek  *int     `json:"day_of_week,omitempty" binding:"omitempty,min=0,max=6"`
	Percentage *float64 `json:"percentage,omitempty" binding:"omitempty,gt=0,lte=100"`
	StartDate  *string  `json:"start_date,omitempty"`
	EndDate    *string  `json:"end_date,omitempty"`
	IsActive   *bool    `json:"is_active,omitempty"`
}

// --------- Handlers ---------

func (h *DiscountHandler) List(c *gin.Context) {
	variationID, ok := queryID(c, "service_variation_id")
	if !ok {
		httperr.BadRequest(c, "missing_service_variation_id", "service_variation_id is required")
		return
	}

	var discounts []models.Discount
	if err := h.db.WithContext(c.Request.Context()).
		Where("service_variation_id = ?", variationID).
		Order("day_of_week ASC, percentage DESC").
		Find(&discounts).Error; err != nil {

		httperr.Internal(c, "failed_to_list_discounts", "could not list discounts")
		return
	}

	c.JSON(http.StatusOK, discounts)
}

func (h *DiscountHandler) Create(c *gin.Context) {
	var req CreateDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ownVariation(c, req.ServiceVariationID); err != nil {
		httperr.FromError(c, err)
		return
	}

	d := models.Discount{
		ServiceVariationID: req.ServiceVariationID,
		DayOfWeek:          *req.DayOfWeek,
		Percentage:         req.Percentage,
		StartDate:          emptyToNil(req.StartDate),
		EndDate:            emptyToNil(req.EndDate),
		IsActive:           true,
	}
	if err := validateWindow(d.StartDate, d.EndDate); err != nil {
		httperr.FromError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&d).Error; err != nil {
		httperr.Internal(c, "failed_to_create_discount", "could not create discount")
		return
	}

	c.JSON(http.StatusCreated, d)
}

func (h *DiscountHandler) Update(c *gin.Context) {
	d, ok := h.ownedDiscount(c)
	if !ok {
		return
	}

	var req UpdateDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.DayOfWeek != nil {
		d.DayOfWeek = *req.DayOfWeek
	}
	if req.Percentage != nil {
		d.Percentage = *req.Percentage
	}
	if req.StartDate != nil {
		d.StartDate = emptyToNil(req.StartDate)
	}
	if req.EndDate != nil {
		d.EndDate = emptyToNil(req.EndDate)
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}
	if err := validateWindow(d.StartDate, d.EndDate); err != nil {
		httperr.FromError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Save(d).Error; err != nil {
		httperr.Internal(c, "failed_to_update_discount", "could not update discount")
		return
	}

	c.JSON(http.StatusOK, d)
}

func (h *DiscountHandler) Delete(c *gin.Context) {
	d, ok := h.ownedDiscount(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(d).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_discount", "could not delete discount")
		return
	}

	c.Status(http.StatusNoContent)
}

// Quote prices a variation on a date the same way a new booking would.
func (h *DiscountHandler) Quote(c *gin.Context) {
	variationID, ok := queryID(c, "service_variation_id")
	if !ok {
		httperr.BadRequest(c, "missing_service_variation_id", "service_variation_id is required")
		return
	}

	date := c.Query("date")
	if !calendar.ValidDate(date) {
		httperr.BadRequest(c, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	var variation models.ServiceVariation
	if err := h.db.WithContext(c.Request.Context()).First(&variation, variationID).Error; err != nil {
		httperr.NotFound(c, "variation_not_found", "service variation not found")
		return
	}

	quote := h.resolver.PriceWithDiscount(c.Request.Context(), variation.ID, date, variation.Price)
	c.JSON(http.StatusOK, quote)
}

// --------- Helpers ---------

func (h *DiscountHandler) ownVariation(c *gin.Context, variationID uint) error {
	var svc models.Service
	err := h.db.WithContext(c.Request.Context()).
		Joins("JOIN service_variations ON service_variations.service_id = services.id").
		Where("service_variations.id = ?", variationID).
		First(&svc).Error
	if err != nil {
		if httperr.IsNotFound(err) {
			return httperr.ErrNotFound("variation_not_found", "service variation not found")
		}
		return err
	}
	if svc.ProviderID != currentUserID(c) {
		return httperr.ErrForbidden("not_service_owner", "only the provider of this service can do that")
	}
	return nil
}

func (h *DiscountHandler) ownedDiscount(c *gin.Context) (*models.Discount, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var d models.Discount
	if err := h.db.WithContext(c.Request.Context()).First(&d, id).Error; err != nil {
		httperr.NotFound(c, "discount_not_found", "discount not found")
		return nil, false
	}
	if err := h.ownVariation(c, d.ServiceVariationID); err != nil {
		httperr.FromError(c, err)
		return nil, false
	}
	return &d, true
}

func validateWindow(start, end *string) error {
	if start != nil && !calendar.ValidDate(*start) {
		return httperr.ErrValidation("invalid_start_date", "start_date must be YYYY-MM-DD")
	}
	if end != nil && !calendar.ValidDate(*end) {
		return httperr.ErrValidation("invalid_end_date", "end_date must be YYYY-MM-DD")
	}
	if start != nil && end != nil && *end < *start {
		return httperr.ErrValidation("end_before_start", "end_date must not be before start_date")
	}
	return nil
}
