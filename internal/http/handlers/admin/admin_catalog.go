package admin

import (
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/models"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name        string       `json:"name" binding:"required,max=120"`
	Slug        string       `json:"slug" binding:"required,max=120"`
	Description string       `json:"description"`
	Price       models.Money `json:"price"`
	Stock       int          `json:"stock" binding:"min=0"`
	Image       string       `json:"image" binding:"max=255"`
	IsActive    *bool        `json:"is_active"`
	SortOrder   int          `json:"sort_order"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Image:       r.Image,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	products, total, err := h.ProductService.ListAdmin(strings.TrimSpace(c.Query("search")), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.Page(c, products, page, pageSize, total)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Create(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品（含库存）
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	product, err := h.ProductService.Update(id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, product)
}

// LocationRequest 配送区域请求
type LocationRequest struct {
	Name        string            `json:"name" binding:"required,max=120"`
	IsActive    *bool             `json:"is_active"`
	CenterLat   *float64          `json:"center_lat" binding:"omitempty,min=-90,max=90"`
	CenterLng   *float64          `json:"center_lng" binding:"omitempty,min=-180,max=180"`
	RadiusKm    *float64          `json:"radius_km" binding:"omitempty,gt=0"`
	Polygon     models.GeoPolygon `json:"polygon"`
	DeliveryFee models.Money      `json:"delivery_fee"`
}

func (r LocationRequest) toInput() service.LocationInput {
	return service.LocationInput{
		Name:        r.Name,
		IsActive:    r.IsActive,
		CenterLat:   r.CenterLat,
		CenterLng:   r.CenterLng,
		RadiusKm:    r.RadiusKm,
		Polygon:     r.Polygon,
		DeliveryFee: r.DeliveryFee,
	}
}

// GetAdminLocations 配送区域列表
func (h *Handler) GetAdminLocations(c *gin.Context) {
	page, pageSize := pageParams(c)
	locations, total, err := h.LocationService.ListAdmin(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.zone_fetch_failed", err)
		return
	}
	response.Page(c, locations, page, pageSize, total)
}

// CreateLocation 创建配送区域
func (h *Handler) CreateLocation(c *gin.Context) {
	var req LocationRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	location, err := h.LocationService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, location)
}

// UpdateLocation 更新配送区域，变更后区域缓存失效
func (h *Handler) UpdateLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LocationRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	location, err := h.LocationService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, location)
}

// UploadFile 上传商品图片等素材
func (h *Handler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		handlershared.RespondValidationError(c, service.NewValidationError("file", "required"))
		return
	}
	url, err := h.UploadService.SaveFile(file, c.DefaultPostForm("scene", "product"))
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.upload_failed")
		return
	}
	response.Success(c, gin.H{"url": url})
}
