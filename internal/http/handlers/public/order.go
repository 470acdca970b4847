package public

import (
	"strings"

	handlershared "github.com/campusdash/internal/http/handlers/shared"
	"github.com/campusdash/internal/http/response"
	"github.com/campusdash/internal/repository"
	"github.com/campusdash/internal/service"

	"github.com/gin-gonic/gin"
)

// DeliveryTargetRequest 收货坐标与地址
type DeliveryTargetRequest struct {
	Latitude   *float64 `json:"latitude" form:"latitude" binding:"required,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" form:"longitude" binding:"required,min=-180,max=180"`
	Address    string   `json:"address" form:"address" binding:"required,max=255"`
	LocationID uint     `json:"location_id" form:"location_id"`
}

// PlaceOrderRequest 货到付款下单请求
type PlaceOrderRequest struct {
	DeliveryTargetRequest
}

// PlaceOrder 以实时购物车直接下单
func (h *Handler) PlaceOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}

	result, err := h.OrderPlacementService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:     uid,
		Lat:        *req.Latitude,
		Lng:        *req.Longitude,
		Address:    req.Address,
		LocationID: req.LocationID,
	})
	if err != nil {
		respondPlacementError(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 获取我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, pageSize := pageParams(c)

	orders, total, err := h.OrderService.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.order_fetch_failed", err)
		return
	}
	response.Page(c, orders, page, pageSize, total)
}

// GetOrderByCode 按订单编号获取我的订单
func (h *Handler) GetOrderByCode(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetByUserOrderCode(c.Param("code"), uid)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
		}, response.CodeInternal, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}
