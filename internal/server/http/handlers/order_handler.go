package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/usecase"
)

const (
	msgNotFound        = "Order not found"
	msgInvalidBody     = "invalid request body"
	msgStatusRequired  = "status is required"
	msgStorageDown     = "order storage is unavailable"
	msgInternal        = "internal server error"
	msgFallbackListing = "orders served from fallback storage"
	msgListUnavailable = "orders are temporarily unavailable"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	order, err := h.facade.CreateOrder(c.Request.Context(), toOrderInput(req, CurrentIdentity(c)))
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.OrderEnvelope{Success: true, Order: toOrderResponse(*order)})
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.facade.Order(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderEnvelope{Success: true, Order: toOrderResponse(*order)})
}

// List handles GET /orders. Lookup failures degrade to an empty list.
func (h *OrderHandler) List(c *gin.Context) {
	listing, err := h.facade.Orders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, dto.OrderListEnvelope{Success: true, Orders: []dto.OrderResponse{}, Message: msgListUnavailable})
		return
	}

	response := dto.OrderListEnvelope{
		Success: true,
		Count:   len(listing.Orders),
		Orders:  make([]dto.OrderResponse, 0, len(listing.Orders)),
		Source:  listing.Source,
	}
	for _, o := range listing.Orders {
		response.Orders = append(response.Orders, toOrderResponse(o))
	}
	if listing.Fallback {
		response.Message = msgFallbackListing
	}
	c.JSON(http.StatusOK, response)
}

// UpdateStatus handles PATCH /orders/:id and PATCH /orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, msgStatusRequired)
		return
	}
	status, err := usecase.ParseOrderStatus(req.Status)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	payment, err := usecase.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.facade.UpdateOrderStatus(c.Request.Context(), c.Param("id"), status, payment)
	if err != nil {
		h.writeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderEnvelope{Success: true, Order: toOrderResponse(*order)})
}

func (h *OrderHandler) writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainErrors.ErrValidation):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domainErrors.ErrNotFound):
		writeError(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, domainErrors.ErrStorageExhausted):
		writeError(c, http.StatusInternalServerError, msgStorageDown)
	default:
		writeError(c, http.StatusInternalServerError, msgInternal)
	}
}

func toOrderInput(req dto.CreateOrderRequest, identity *model.Identity) model.OrderInput {
	items := make([]model.Item, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, model.Item{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return model.OrderInput{
		ID: req.OrderID,
		Customer: model.Customer{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
			Email:   req.Customer.Email,
		},
		Items:          items,
		DiscountAmount: req.DiscountAmount,
		PaymentStatus:  model.PaymentStatus(req.PaymentStatus),
		Identity:       identity,
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	items := make([]dto.ItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.ItemPayload{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	var userID *string
	if order.UserID != "" {
		id := order.UserID
		userID = &id
	}
	return dto.OrderResponse{
		OrderID: order.ID,
		UserID:  userID,
		Customer: dto.CustomerPayload{
			Name:    order.Customer.Name,
			Phone:   order.Customer.Phone,
			Address: order.Customer.Address,
			Email:   order.Customer.Email,
		},
		Items:          items,
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		FinalAmount:    order.FinalAmount,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
