package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

type MeHandler struct {
	db *gorm.DB
}

func NewMeHandler(db *gorm.DB) *MeHandler {
	return &MeHandler{db: db}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "user not found")
		return
	}

	resp := gin.H{"user": user}

	if user.IsProvider() {
		var services, pending int64
		if err := h.db.Model(&models.Service{}).Where("provider_id = ?", user.ID).Count(&services).Error; err != nil {
			httperr.Internal(c, "failed_to_load_profile", "could not count services")
			return
		}
		if err := h.db.Model(&models.Booking{}).
			Where("provider_id = ? AND status = ?", user.ID, "pending").
			Count(&pending).Error; err != nil {

			httperr.Internal(c, "failed_to_load_profile", "could not count pending bookings")
			return
		}

		resp["services"] = services
		resp["pending_bookings"] = pending
	}

	c.JSON(http.StatusOK, resp)
}

type UpdateMeRequest struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Phone        *string `json:"phone,omitempty"`
	City         *string `json:"city,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
}

func (h *MeHandler) UpdateMe(c *gin.Context) {
	userID := currentUserID(c)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httperr.NotFound(c, "user_not_found", "user not found")
		return
	}

	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.Neighborhood != nil {
		updates["neighborhood"] = *req.Neighborhood
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			httperr.Internal(c, "failed_to_update_user", "could not update profile")
			return
		}
		h.db.First(&user, userID)
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ======================================================
// LIST CLIENTS (PROVIDER)
// ======================================================

// Clients lists everyone who has booked the calling provider.
func (h *MeHandler) Clients(c *gin.Context) {
	providerID := currentUserID(c)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	clientIDs := h.db.Model(&models.Booking{}).
		Select("client_id").
		Where("provider_id = ?", providerID)

	q := h.db.Where("id IN (?)", clientIDs)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"(LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?)",
			like, like, like,
		)
	}

	var clients []models.User
	if err := q.
		Order("name ASC").
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "could not list clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}
