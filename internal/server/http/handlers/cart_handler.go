package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

const maxCartSize = 64 << 10

// CartHandler serves table-scoped carts.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// Get handles GET /api/tables/:id/cart. A table without a cart gets 204.
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	payload, err := h.facade.Cart(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), dto.CommandResponse{Error: err.Error()})
		return
	}
	if payload == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// Put handles PUT /api/tables/:id/cart.
func (h *CartHandler) Put(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCartSize+1))
	if err != nil || len(body) > maxCartSize || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, dto.CommandResponse{Error: "malformed cart"})
		return
	}
	if err := h.facade.SaveCart(c.Request.Context(), id, body); err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), dto.CommandResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
