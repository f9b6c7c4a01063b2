package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
)

// intParam parses an integer path parameter no smaller than least. It writes 400
// and reports false when the value is malformed or out of range.
func intParam(c *gin.Context, name string, least int) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < least {
		c.JSON(http.StatusBadRequest, dto.CommandResponse{Error: "invalid " + name})
		return 0, false
	}
	return v, true
}

// statusFor maps domain errors to HTTP status codes. Unknown errors map to fallback.
func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrInvalidTable), errors.Is(err, domainErrors.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrAlreadyExists),
		errors.Is(err, domainErrors.ErrItemAlreadyRemoved),
		errors.Is(err, domainErrors.ErrNoActionableOrders):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, domainErrors.ErrPartialFailure):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

// writeCommand renders a command outcome. Remote write failures map to 502.
func writeCommand(c *gin.Context, err error) {
	if err != nil {
		c.JSON(statusFor(err, http.StatusBadGateway), dto.CommandResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CommandResponse{OK: true})
}

func toTableViewResponse(view model.TableView) dto.TableViewResponse {
	lines := make([]dto.LineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, dto.LineResponse{
			Ref:       line.Ref.String(),
			OrderID:   line.Ref.OrderID,
			Index:     line.Ref.Index,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Status:    string(line.Status),
			CreatedAt: line.CreatedAt,
		})
	}
	return dto.TableViewResponse{
		ID:            view.Table.ID,
		Name:          view.Table.Name,
		Status:        string(view.Status),
		OrderCount:    view.OrderCount,
		LastOrderTime: view.LastOrderTime,
		Pending:       view.Pending,
		Lines:         lines,
	}
}

func toTableViewResponses(views []model.TableView) []dto.TableViewResponse {
	out := make([]dto.TableViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toTableViewResponse(v))
	}
	return out
}

func toOrderResponse(order model.OrderRecord) dto.OrderResponse {
	items := make([]dto.ItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, dto.ItemPayload{Name: item.Name, Price: item.UnitPrice, Quantity: item.Quantity})
	}
	return dto.OrderResponse{
		ID:          order.ID,
		TableNumber: order.TableNumber,
		Items:       items,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
		CompletedAt: order.CompletedAt,
	}
}
