package handler

import (
	"errors"
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService       service.OrderService
	aggregationService service.AggregationService
	wastageService     service.WastageService
}

func NewOrderHandler(
	orderService service.OrderService,
	aggregationService service.AggregationService,
	wastageService service.WastageService,
) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		aggregationService: aggregationService,
		wastageService:     wastageService,
	}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("/draft", middleware.RequirePermission("orders.read"), h.BuildDraftOrder)
		orders.GET("", middleware.RequirePermission("orders.read"), h.ListOrders)
		orders.POST("", middleware.RequirePermission("orders.write"), h.CreateOrder)
		orders.GET("/:id", middleware.RequirePermission("orders.read"), h.GetOrder)
		orders.PUT("/:id", middleware.RequirePermission("orders.write"), h.UpdateOrder)
		orders.GET("/:id/summary", middleware.RequirePermission("orders.read"), h.GetOrderSummary)
		orders.POST("/:id/delivery", middleware.RequirePermission("orders.fulfill"), h.RecordDelivery)
		orders.POST("/:id/receipt", middleware.RequirePermission("orders.fulfill"), h.RecordReceipt)
		orders.POST("/:id/wastage", middleware.RequirePermission("wastage.write"), h.RegisterWastage)
	}
}

// writeOrderError translates service errors into the envelope and status the
// frontend keys on: field validation 400, missing order 404, lifecycle
// conflicts 409, wastage constraint violations 422 with structured detail.
func writeOrderError(c *gin.Context, err error) {
	var verr service.ValidationErrors
	var cverr *service.ConstraintViolationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, response.Response{
			Status:     "error",
			StatusCode: http.StatusBadRequest,
			Data:       gin.H{"violations": verr},
			Error:      err.Error(),
		})
	case errors.As(err, &cverr):
		c.JSON(http.StatusUnprocessableEntity, response.Response{
			Status:     "error",
			StatusCode: http.StatusUnprocessableEntity,
			Data:       gin.H{"level": cverr.Level, "violations": cverr.Violations},
			Error:      err.Error(),
		})
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrOrderNotEditable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrDeliveryNotRecorded),
		errors.Is(err, service.ErrReceiptNotRecorded):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// BuildDraftOrder aggregates the delivery schedule into order-line candidates
// @Summary      Build draft order from schedule demand
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        delivery_date  query  string  true  "Delivery date (YYYY-MM-DD)"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/orders/draft [get]
func (h *OrderHandler) BuildDraftOrder(c *gin.Context) {
	dateStr := c.Query("delivery_date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "delivery_date is required"))
		return
	}
	deliveryDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid delivery_date, expected YYYY-MM-DD"))
		return
	}

	draft, err := h.aggregationService.BuildDraftOrder(c.Request.Context(), deliveryDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// ListOrders returns paginated orders with optional filters
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page       query  int     false  "Page number (default: 1)"
// @Param        limit      query  int     false  "Items per page (default: 20)"
// @Param        status     query  string  false  "Filter by status: PENDING, DELIVERED, RECEIVED"
// @Param        vendor_id  query  string  false  "Filter by vendor"
// @Param        date_from  query  string  false  "Order date lower bound (YYYY-MM-DD)"
// @Param        date_to    query  string  false  "Order date upper bound (YYYY-MM-DD)"
// @Success      200  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.OrderFilter{
		Status:   c.Query("status"),
		VendorID: c.Query("vendor_id"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, orders, params.Page, params.Limit, total))
}

// CreateOrder validates and persists a vendor order, assigning its PO number
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateOrderRequest  true  "Order payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns one order with its line items
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder replaces a pending order's header and items
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Order ID"
// @Param        payload  body  service.UpdateOrderRequest  true  "Order payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrderSummary returns grouped quantities and the monetary total
// @Summary      Get order summary
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/summary [get]
func (h *OrderHandler) GetOrderSummary(c *gin.Context) {
	summary, err := h.orderService.GetOrderSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// RecordDelivery moves a pending order to DELIVERED. Over-quantities come back
// as warnings alongside the updated order, not as failures.
// @Summary      Record delivery
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Order ID"
// @Param        payload  body  service.RecordDeliveryRequest  true  "Delivered quantities"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/delivery [post]
func (h *OrderHandler) RecordDelivery(c *gin.Context) {
	var req service.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, warnings, err := h.orderService.RecordDelivery(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"order":    order,
		"warnings": warnings,
	}))
}

// RecordReceipt moves a delivered order to RECEIVED, defaulting omitted
// quantities to the delivered (or ordered) value
// @Summary      Record receipt
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Order ID"
// @Param        payload  body  service.RecordReceiptRequest  true  "Received quantities"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/receipt [post]
func (h *OrderHandler) RecordReceipt(c *gin.Context) {
	var req service.RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, warnings, err := h.orderService.RecordReceipt(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"order":    order,
		"warnings": warnings,
	}))
}

// RegisterWastage records losses at the farmer or agency checkpoint
// @Summary      Register wastage
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Order ID"
// @Param        payload  body  service.RegisterWastageRequest  true  "Wastage entries"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/orders/{id}/wastage [post]
func (h *OrderHandler) RegisterWastage(c *gin.Context) {
	var req service.RegisterWastageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.wastageService.RegisterWastage(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
