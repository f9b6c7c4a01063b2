package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

// HealthHandler reports remote store reachability.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check handles GET /healthz.
func (h *HealthHandler) Check(c *gin.Context) {
	if err := h.checker.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.CommandResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CommandResponse{OK: true})
}
