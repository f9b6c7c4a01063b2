package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

// TableHandler manages table endpoints.
type TableHandler struct {
	facade TableFacade
}

// NewTableHandler constructs TableHandler.
func NewTableHandler(facade TableFacade) *TableHandler {
	return &TableHandler{facade: facade}
}

// List handles GET /api/tables.
func (h *TableHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, toTableViewResponses(h.facade.Tables()))
}

// Get handles GET /api/tables/:id.
func (h *TableHandler) Get(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTableViewResponse(h.facade.TableView(id)))
}

// Add handles POST /api/tables.
func (h *TableHandler) Add(c *gin.Context) {
	var req dto.AddTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.CommandResponse{Error: "malformed request"})
		return
	}
	table, err := h.facade.AddTable(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), dto.CommandResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.TableResponse{ID: table.ID, Name: table.Name})
}

// Remove handles DELETE /api/tables/:id.
func (h *TableHandler) Remove(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	if err := h.facade.RemoveTable(c.Request.Context(), id); err != nil {
		c.JSON(statusFor(err, http.StatusInternalServerError), dto.CommandResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Confirm handles POST /api/tables/:id/confirm.
func (h *TableHandler) Confirm(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	writeCommand(c, h.facade.ConfirmTable(c.Request.Context(), id))
}

// End handles POST /api/tables/:id/end.
func (h *TableHandler) End(c *gin.Context) {
	id, ok := intParam(c, "id", 1)
	if !ok {
		return
	}
	writeCommand(c, h.facade.EndTable(c.Request.Context(), id))
}
