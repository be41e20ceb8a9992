package handlers

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/marketplace/internal/httperr"
	"github.com/BruksfildServices01/marketplace/internal/infra/cache"
	"github.com/BruksfildServices01/marketplace/internal/infra/search"
	"github.com/BruksfildServices01/marketplace/internal/infra/storage"
	"github.com/BruksfildServices01/marketplace/internal/media"
	"github.com/BruksfildServices01/marketplace/internal/models"
)

const maxPhotosPerService = 10

type ServiceHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	index  search.Index
	photos storage.PhotoStore
	log    *zap.Logger
}

// NewServiceHandler accepts a nil photo store; uploads then answer 503.
func NewServiceHandler(
	db *gorm.DB,
	c cache.Cache,
	index search.Index,
	photos storage.PhotoStore,
	log *zap.Logger,
) *ServiceHandler {
	return &ServiceHandler{db: db, cache: c, index: index, photos: photos, log: log}
}

// --------- Requests ---------

type VariationRequest struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name" binding:"required"`
	Price           float64 `json:"price" binding:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=1"`
}

type CreateServiceRequest struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	ServiceTypeID uint               `json:"service_type_id" binding:"required"`
	Variations    []VariationRequest `json:"variations" binding:"required,min=1,dive"`
}

type UpdateServiceRequest struct {
	Name          *string            `json:"name,omitempty"`
	Description   *string            `json:"description,omitempty"`
	ServiceTypeID *uint              `json:"service_type_id,omitempty"`
	Variations    []VariationRequest `json:"variations,omitempty" binding:"omitempty,dive"`
}

// --------- Service types ---------

func (h *ServiceHandler) ListServiceTypes(c *gin.Context) {
	ctx := c.Request.Context()

	var types []models.ServiceType
	if h.cache.Get(ctx, cache.ServiceTypesKey, &types) {
		c.JSON(http.StatusOK, types)
		return
	}

	if err := h.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		httperr.Internal(c, "failed_to_list_service_types", "could not list service types")
		return
	}

	h.cache.Set(ctx, cache.ServiceTypesKey, types, cache.ServiceTypesTTL)
	c.JSON(http.StatusOK, types)
}

// --------- Catalog ---------

func (h *ServiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	text := strings.TrimSpace(c.Query("search"))
	typeID, _ := queryID(c, "service_type_id")
	providerID, _ := queryID(c, "provider_id")
	limit, offset := pageParams(c, 20, 100)

	q := h.db.WithContext(ctx).
		Preload("Variations").
		Preload("ServiceType").
		Preload("Provider")

	if typeID > 0 {
		q = q.Where("service_type_id = ?", typeID)
	}
	if providerID > 0 {
		q = q.Where("provider_id = ?", providerID)
	}

	var rank map[uint]int
	if text != "" {
		ids, ok := h.searchIDs(c, search.Query{Text: text, ServiceTypeID: typeID})
		if ok {
			if len(ids) == 0 {
				c.JSON(http.StatusOK, gin.H{"data": []models.Service{}, "total": 0})
				return
			}
			rank = make(map[uint]int, len(ids))
			for i, id := range ids {
				rank[id] = i
			}
			q = q.Where("id IN ?", ids)
		} else {
			like := "%" + strings.ToLower(text) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", like, like)
		}
	}

	var services []models.Service
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "could not list services")
		return
	}

	if rank != nil {
		sortByRank(services, rank)
	}

	c.JSON(http.StatusOK, gin.H{"data": services, "total": len(services)})
}

// searchIDs consults the cached hit list first and then the index.
func (h *ServiceHandler) searchIDs(c *gin.Context, q search.Query) ([]uint, bool) {
	ctx := c.Request.Context()

	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d", strings.ToLower(q.Text), q.ServiceTypeID)))
	key := cache.SearchKey(hex.EncodeToString(sum[:]))

	var ids []uint
	if h.cache.Get(ctx, key, &ids) {
		return ids, true
	}

	ids, ok := h.index.Search(ctx, q)
	if !ok {
		return nil, false
	}
	h.cache.Set(ctx, key, ids, cache.SearchTTL)
	return ids, true
}

func sortByRank(services []models.Service, rank map[uint]int) {
	sort.SliceStable(services, func(i, j int) bool {
		return rank[services[i].ID] < rank[services[j].ID]
	})
}

func (h *ServiceHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.load(c, id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	providerID := currentUserID(c)

	var req CreateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.db.First(&models.ServiceType{}, req.ServiceTypeID).Error; err != nil {
		httperr.BadRequest(c, "service_type_not_found", "service type not found")
		return
	}

	svc := models.Service{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		ServiceTypeID: req.ServiceTypeID,
		ProviderID:    providerID,
		Photos:        []string{},
	}
	for _, v := range req.Variations {
		svc.Variations = append(svc.Variations, models.ServiceVariation{
			Name:            v.Name,
			Price:           v.Price,
			DurationMinutes: v.DurationMinutes,
		})
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "could not create service")
		return
	}

	h.reindex(c, svc.ID)
	c.JSON(http.StatusCreated, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.owned(c, id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	var req UpdateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.ServiceTypeID != nil {
		if err := h.db.First(&models.ServiceType{}, *req.ServiceTypeID).Error; err != nil {
			httperr.BadRequest(c, "service_type_not_found", "service type not found")
			return
		}
		svc.ServiceTypeID = *req.ServiceTypeID
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(svc).Error; err != nil {
			return err
		}
		// Variations with an id are edited in place, the rest are added.
		for _, v := range req.Variations {
			if v.ID == 0 {
				nv := models.ServiceVariation{
					ServiceID:       svc.ID,
					Name:            v.Name,
					Price:           v.Price,
					DurationMinutes: v.DurationMinutes,
				}
				if err := tx.Create(&nv).Error; err != nil {
					return err
				}
				continue
			}
			res := tx.Model(&models.ServiceVariation{}).
				Where("id = ? AND service_id = ?", v.ID, svc.ID).
				Updates(map[string]any{
					"name":             v.Name,
					"price":            v.Price,
					"duration_minutes": v.DurationMinutes,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return httperr.ErrValidation("invalid_variation", "variation does not belong to this service")
			}
		}
		return nil
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	h.reindex(c, svc.ID)

	out, err := h.load(c, svc.ID)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.owned(c, id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	var bookings int64
	if err := h.db.Model(&models.Booking{}).Where("service_id = ?", svc.ID).Count(&bookings).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_service", "could not check bookings")
		return
	}
	if bookings > 0 {
		httperr.Write(c, http.StatusConflict, "service_has_bookings", "services with bookings cannot be deleted")
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		variationIDs := tx.Model(&models.ServiceVariation{}).Select("id").Where("service_id = ?", svc.ID)
		if err := tx.Where("service_variation_id IN (?)", variationIDs).Delete(&models.Discount{}).Error; err != nil {
			return err
		}
		if err := tx.Where("service_id = ?", svc.ID).Delete(&models.ServiceVariation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Service{}, svc.ID).Error
	})
	if err != nil {
		if httperr.IsForeignKeyViolation(err) {
			httperr.Write(c, http.StatusConflict, "service_has_bookings", "services with bookings cannot be deleted")
			return
		}
		httperr.Internal(c, "failed_to_delete_service", "could not delete service")
		return
	}

	if h.photos != nil {
		for _, url := range svc.Photos {
			if key, ok := h.photos.KeyFromURL(url); ok {
				if err := h.photos.Delete(c.Request.Context(), key); err != nil {
					h.log.Warn("photo delete failed", zap.String("key", key), zap.Error(err))
				}
			}
		}
	}

	h.index.DeleteService(c.Request.Context(), svc.ID)
	h.cache.DeleteByPattern(c.Request.Context(), cache.SearchPattern)

	c.Status(http.StatusNoContent)
}

// --------- Photos ---------

func (h *ServiceHandler) UploadPhoto(c *gin.Context) {
	if h.photos == nil {
		httperr.Write(c, http.StatusServiceUnavailable, "storage_unavailable", "photo storage is not configured")
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.owned(c, id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	if len(svc.Photos) >= maxPhotosPerService {
		httperr.BadRequest(c, "too_many_photos", fmt.Sprintf("a service can have at most %d photos", maxPhotosPerService))
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "multipart field photo is required")
		return
	}
	if file.Size > media.MaxUploadBytes {
		httperr.BadRequest(c, "photo_too_large", "photo exceeds the upload limit")
		return
	}

	f, err := file.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_photo", "could not read photo")
		return
	}
	defer f.Close()

	body, err := media.ToWebP(f, media.MaxWidth)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			httperr.BadRequest(c, "photo_too_large", "photo exceeds the upload limit")
			return
		}
		httperr.BadRequest(c, "invalid_photo", "photo must be a JPEG, PNG or WebP image")
		return
	}

	key := fmt.Sprintf("services/%d/%s.webp", svc.ID, uuid.NewString())
	url, err := h.photos.Put(c.Request.Context(), key, body, media.ContentType)
	if err != nil {
		h.log.Error("photo upload failed", zap.Uint("service_id", svc.ID), zap.Error(err))
		httperr.Write(c, http.StatusBadGateway, "photo_upload_failed", "could not store photo")
		return
	}

	svc.Photos = append(svc.Photos, url)
	if err := h.savePhotos(c, svc.ID, svc.Photos); err != nil {
		httperr.Internal(c, "failed_to_update_service", "could not save photo")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url, "photos": svc.Photos})
}

func (h *ServiceHandler) DeletePhoto(c *gin.Context) {
	if h.photos == nil {
		httperr.Write(c, http.StatusServiceUnavailable, "storage_unavailable", "photo storage is not configured")
		return
	}

	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.owned(c, id)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	url := c.Query("url")
	kept := make([]string, 0, len(svc.Photos))
	for _, p := range svc.Photos {
		if p != url {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(svc.Photos) {
		httperr.NotFound(c, "photo_not_found", "photo not found")
		return
	}

	if err := h.savePhotos(c, svc.ID, kept); err != nil {
		httperr.Internal(c, "failed_to_update_service", "could not remove photo")
		return
	}

	if key, ok := h.photos.KeyFromURL(url); ok {
		if err := h.photos.Delete(c.Request.Context(), key); err != nil {
			h.log.Warn("photo delete failed", zap.String("key", key), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"photos": kept})
}

// --------- Helpers ---------

func (h *ServiceHandler) savePhotos(c *gin.Context, id uint, photos []string) error {
	return h.db.WithContext(c.Request.Context()).
		Model(&models.Service{ID: id}).
		Select("photos").
		Updates(&models.Service{Photos: photos}).Error
}

func (h *ServiceHandler) load(c *gin.Context, id uint) (*models.Service, error) {
	var svc models.Service
	err := h.db.WithContext(c.Request.Context()).
		Preload("Variations").
		Preload("ServiceType").
		Preload("Provider").
		First(&svc, id).Error
	if err != nil {
		if httperr.IsNotFound(err) {
			return nil, httperr.ErrNotFound("service_not_found", "service not found")
		}
		return nil, err
	}
	return &svc, nil
}

func (h *ServiceHandler) owned(c *gin.Context, id uint) (*models.Service, error) {
	svc, err := h.load(c, id)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != currentUserID(c) {
		return nil, httperr.ErrForbidden("not_service_owner", "only the provider of this service can do that")
	}
	return svc, nil
}

// reindex pushes the stored service to the search index and drops cached
// search results. Neither step can fail the request.
func (h *ServiceHandler) reindex(c *gin.Context, id uint) {
	ctx := c.Request.Context()

	svc, err := h.load(c, id)
	if err != nil {
		h.log.Warn("reindex skipped", zap.Uint("service_id", id), zap.Error(err))
	} else {
		h.index.IndexService(ctx, search.DocumentOf(svc))
	}
	h.cache.DeleteByPattern(ctx, cache.SearchPattern)
}
