package public

import (
	"strconv"
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetProducts 获取上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, pageSize := pageParams(c)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListPublic(search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.Page(c, products, page, pageSize, total)
}

// GetProduct 获取商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	product, err := h.ProductService.GetPublic(uint(id))
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, product)
}

// GetZones 获取启用的配送区域
func (h *Handler) GetZones(c *gin.Context) {
	zones, err := h.LocationService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.zone_fetch_failed", err)
		return
	}
	response.Success(c, zones)
}

// ZoneCheckRequest 坐标区域判定请求
type ZoneCheckRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
}

// CheckZone 判断坐标是否可配送
func (h *Handler) CheckZone(c *gin.Context) {
	var req ZoneCheckRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	result, err := h.LocationService.Check(c.Request.Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		respondZoneError(c, err)
		return
	}
	response.Success(c, result)
}

