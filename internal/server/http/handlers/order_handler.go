package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders := h.facade.Orders()
	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.CommandResponse{Error: "malformed request"})
		return
	}

	draft := model.OrderDraft{TableNumber: req.TableNumber}
	for _, item := range req.Items {
		draft.Items = append(draft.Items, model.LineItem{Name: item.Name, UnitPrice: item.Price, Quantity: item.Quantity})
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), draft)
	if err != nil {
		c.JSON(statusFor(err, http.StatusBadGateway), dto.CommandResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// DeleteItem handles DELETE /api/orders/:id/items/:index.
func (h *OrderHandler) DeleteItem(c *gin.Context) {
	index, ok := intParam(c, "index", 0)
	if !ok {
		return
	}
	writeCommand(c, h.facade.DeleteLineItem(c.Request.Context(), c.Param("id"), index))
}
