package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domainErrors "github.com/AlwaysKim-03/orderland-sub000/internal/domain/errors"
	"github.com/AlwaysKim-03/orderland-sub000/internal/domain/model"
	"github.com/AlwaysKim-03/orderland-sub000/internal/server/http/dto"
	testhelpers "github.com/AlwaysKim-03/orderland-sub000/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, pattern, path string, handler gin.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, pattern, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeCommand(t *testing.T, resp *httptest.ResponseRecorder) dto.CommandResponse {
	t.Helper()
	var out dto.CommandResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode command response %q: %v", resp.Body.String(), err)
	}
	return out
}

func sampleView() model.TableView {
	created := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	return model.TableView{
		Table:         model.NewTable(5),
		Status:        model.TableStatusOrdered,
		OrderCount:    1,
		LastOrderTime: "18:30",
		LastOrderAt:   created,
		Pending:       true,
		Lines: []model.TableOrderLine{{
			Ref:       model.LineItemRef{OrderID: "o1", Index: 0},
			Name:      "Kimchi Stew",
			UnitPrice: decimal.NewFromInt(9000),
			Quantity:  1,
			Status:    model.LineStatusNew,
			CreatedAt: created,
		}},
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domainErrors.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("x: %w", domainErrors.ErrInvalidTable), http.StatusBadRequest},
		{domainErrors.ErrInvalidOrder, http.StatusBadRequest},
		{domainErrors.ErrAlreadyExists, http.StatusConflict},
		{domainErrors.ErrItemAlreadyRemoved, http.StatusConflict},
		{domainErrors.ErrNoActionableOrders, http.StatusConflict},
		{domainErrors.ErrEngineStopped, http.StatusServiceUnavailable},
		{domainErrors.ErrPartialFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusTeapot},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err, http.StatusTeapot); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
	}
}

func TestTableHandlerList(t *testing.T) {
	facade := &testhelpers.BoardFacadeStub{TablesFn: func() []model.TableView {
		return []model.TableView{sampleView(), {Table: model.NewTable(7), Status: model.TableStatusEmpty}}
	}}
	resp := performRequest(t, http.MethodGet, "/tables", "/tables", NewTableHandler(facade).List, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var views []dto.TableViewResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 2 || views[0].Name != "05" || views[0].Status != "ordered" || !views[0].Pending {
		t.Fatalf("unexpected views %+v", views)
	}
	line := views[0].Lines[0]
	if line.Ref != "o1/0" || line.OrderID != "o1" || !line.UnitPrice.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("unexpected line %+v", line)
	}
	if views[1].Lines == nil {
		t.Fatal("empty tables must render an empty line list")
	}
}

func TestTableHandlerGet(t *testing.T) {
	var asked int
	facade := &testhelpers.BoardFacadeStub{TableViewFn: func(id int) model.TableView {
		asked = id
		return sampleView()
	}}
	h := NewTableHandler(facade)

	resp := performRequest(t, http.MethodGet, "/tables/:id", "/tables/5", h.Get, nil)
	if resp.Code != http.StatusOK || asked != 5 {
		t.Fatalf("unexpected response %d for table %d", resp.Code, asked)
	}

	for _, path := range []string{"/tables/abc", "/tables/0", "/tables/-3"} {
		resp = performRequest(t, http.MethodGet, "/tables/:id", path, h.Get, nil)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", path, resp.Code)
		}
	}
}

func TestTableHandlerAdd(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		err    error
		status int
	}{
		{name: "created", body: []byte(`{"id":3}`), status: http.StatusCreated},
		{name: "bad json", body: []byte(`nope`), status: http.StatusBadRequest},
		{name: "invalid", body: []byte(`{"id":0}`), err: domainErrors.ErrInvalidTable, status: http.StatusBadRequest},
		{name: "duplicate", body: []byte(`{"id":3}`), err: domainErrors.ErrAlreadyExists, status: http.StatusConflict},
		{name: "storage", body: []byte(`{"id":3}`), err: errors.New("disk"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facade := &testhelpers.BoardFacadeStub{AddTableFn: func(_ context.Context, id int) (model.Table, error) {
				if tt.err != nil {
					return model.Table{}, tt.err
				}
				return model.NewTable(id), nil
			}}
			resp := performRequest(t, http.MethodPost, "/tables", "/tables", NewTableHandler(facade).Add, tt.body)
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			if tt.status == http.StatusCreated {
				var table dto.TableResponse
				_ = json.Unmarshal(resp.Body.Bytes(), &table)
				if table.ID != 3 || table.Name != "03" {
					t.Fatalf("unexpected table %+v", table)
				}
			}
		})
	}
}

func TestTableHandlerRemove(t *testing.T) {
	facade := &testhelpers.BoardFacadeStub{RemoveTableFn: func(_ context.Context, id int) error {
		if id == 9 {
			return domainErrors.ErrNotFound
		}
		return nil
	}}
	h := NewTableHandler(facade)
	if resp := performRequest(t, http.MethodDelete, "/tables/:id", "/tables/3", h.Remove, nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if resp := performRequest(t, http.MethodDelete, "/tables/:id", "/tables/9", h.Remove, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestTableHandlerCommands(t *testing.T) {
	var confirmed, ended int
	facade := &testhelpers.BoardFacadeStub{
		ConfirmTableFn: func(_ context.Context, id int) error {
			confirmed = id
			if id == 2 {
				return fmt.Errorf("confirm table 2: %w", domainErrors.ErrNoActionableOrders)
			}
			return nil
		},
		EndTableFn: func(_ context.Context, id int) error {
			ended = id
			if id == 2 {
				return fmt.Errorf("end table: %w", domainErrors.ErrPartialFailure)
			}
			if id == 3 {
				return errors.New("unavailable")
			}
			return nil
		},
	}
	h := NewTableHandler(facade)

	resp := performRequest(t, http.MethodPost, "/tables/:id/confirm", "/tables/5/confirm", h.Confirm, nil)
	if resp.Code != http.StatusOK || confirmed != 5 || !decodeCommand(t, resp).OK {
		t.Fatalf("unexpected confirm response %d %s", resp.Code, resp.Body.String())
	}

	resp = performRequest(t, http.MethodPost, "/tables/:id/confirm", "/tables/2/confirm", h.Confirm, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if out := decodeCommand(t, resp); out.OK || !strings.Contains(out.Error, "no actionable orders") {
		t.Fatalf("unexpected command response %+v", out)
	}

	resp = performRequest(t, http.MethodPost, "/tables/:id/end", "/tables/5/end", h.End, nil)
	if resp.Code != http.StatusOK || ended != 5 {
		t.Fatalf("unexpected end response %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPost, "/tables/:id/end", "/tables/2/end", h.End, nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for partial failure, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPost, "/tables/:id/end", "/tables/3/end", h.End, nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for remote failure, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPost, "/tables/:id/end", "/tables/x/end", h.End, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderHandlerList(t *testing.T) {
	completed := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	facade := &testhelpers.BoardFacadeStub{OrdersFn: func() []model.OrderRecord {
		return []model.OrderRecord{{
			ID:          "o1",
			TableNumber: 5,
			Items:       []model.LineItem{{Name: "Tea", UnitPrice: decimal.NewFromInt(2000), Quantity: 2}},
			Status:      model.OrderStatusCompleted,
			TotalAmount: decimal.NewFromInt(4000),
			CompletedAt: &completed,
		}}
	}}
	resp := performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(facade).List, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var orders []dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 1 || orders[0].Status != "completed" || orders[0].CompletedAt == nil || !orders[0].TotalAmount.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("unexpected orders %+v", orders)
	}

	resp = performRequest(t, http.MethodGet, "/orders", "/orders", NewOrderHandler(&testhelpers.BoardFacadeStub{}).List, nil)
	if strings.TrimSpace(resp.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", resp.Body.String())
	}
}

func TestOrderHandlerPlace(t *testing.T) {
	var got model.OrderDraft
	facade := &testhelpers.BoardFacadeStub{PlaceOrderFn: func(_ context.Context, draft model.OrderDraft) (*model.OrderRecord, error) {
		got = draft
		if draft.TableNumber == 9 {
			return nil, domainErrors.ErrInvalidTable
		}
		return &model.OrderRecord{ID: "new", TableNumber: draft.TableNumber, Items: draft.Items, Status: model.OrderStatusNew, TotalAmount: model.TotalOf(draft.Items)}, nil
	}}
	h := NewOrderHandler(facade)

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", h.Place, []byte(`{"table_number":5,"items":[{"name":"Tea","price":2000.5,"quantity":2}]}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if got.TableNumber != 5 || len(got.Items) != 1 || !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("2000.5")) {
		t.Fatalf("unexpected draft %+v", got)
	}
	var order dto.OrderResponse
	_ = json.Unmarshal(resp.Body.Bytes(), &order)
	if order.ID != "new" || !order.TotalAmount.Equal(decimal.NewFromInt(4001)) {
		t.Fatalf("unexpected order %+v", order)
	}

	resp = performRequest(t, http.MethodPost, "/orders", "/orders", h.Place, []byte(`{"table_number":9,"items":[]}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPost, "/orders", "/orders", h.Place, []byte(`{`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.Code)
	}
}

func TestOrderHandlerDeleteItem(t *testing.T) {
	var gotID string
	var gotIndex int
	facade := &testhelpers.BoardFacadeStub{DeleteLineItemFn: func(_ context.Context, id string, index int) error {
		gotID, gotIndex = id, index
		if index == 4 {
			return domainErrors.ErrItemAlreadyRemoved
		}
		return nil
	}}
	h := NewOrderHandler(facade)

	resp := performRequest(t, http.MethodDelete, "/orders/:id/items/:index", "/orders/o1/items/1", h.DeleteItem, nil)
	if resp.Code != http.StatusOK || gotID != "o1" || gotIndex != 1 {
		t.Fatalf("unexpected response %d for %s/%d", resp.Code, gotID, gotIndex)
	}
	resp = performRequest(t, http.MethodDelete, "/orders/:id/items/:index", "/orders/o1/items/0", h.DeleteItem, nil)
	if resp.Code != http.StatusOK || gotIndex != 0 {
		t.Fatalf("expected first line to be deletable, got %d for index %d", resp.Code, gotIndex)
	}
	resp = performRequest(t, http.MethodDelete, "/orders/:id/items/:index", "/orders/o1/items/4", h.DeleteItem, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodDelete, "/orders/:id/items/:index", "/orders/o1/items/-1", h.DeleteItem, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCartHandler(t *testing.T) {
	saved := map[int]json.RawMessage{}
	facade := &testhelpers.BoardFacadeStub{
		CartFn: func(_ context.Context, id int) (json.RawMessage, error) {
			if id == 9 {
				return nil, errors.New("locked")
			}
			return saved[id], nil
		},
		SaveCartFn: func(_ context.Context, id int, payload json.RawMessage) error {
			saved[id] = payload
			return nil
		},
	}
	h := NewCartHandler(facade)

	if resp := performRequest(t, http.MethodGet, "/tables/:id/cart", "/tables/5/cart", h.Get, nil); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for missing cart, got %d", resp.Code)
	}
	if resp := performRequest(t, http.MethodPut, "/tables/:id/cart", "/tables/5/cart", h.Put, []byte(`[{"name":"Tea"}]`)); resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on save, got %d", resp.Code)
	}
	resp := performRequest(t, http.MethodGet, "/tables/:id/cart", "/tables/5/cart", h.Get, nil)
	if resp.Code != http.StatusOK || resp.Body.String() != `[{"name":"Tea"}]` {
		t.Fatalf("unexpected cart %d %s", resp.Code, resp.Body.String())
	}
	if resp := performRequest(t, http.MethodPut, "/tables/:id/cart", "/tables/5/cart", h.Put, []byte(`{`)); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed cart, got %d", resp.Code)
	}
	if resp := performRequest(t, http.MethodGet, "/tables/:id/cart", "/tables/9/cart", h.Get, nil); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ok := NewHealthHandler(testhelpers.HealthCheckerStub{})
	if resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", ok.Check, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	down := NewHealthHandler(testhelpers.HealthCheckerStub{Err: errors.New("down")})
	if resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", down.Check, nil); resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
}

func TestEventHandlerStream(t *testing.T) {
	facade := &testhelpers.BoardFacadeStub{TablesFn: func() []model.TableView { return []model.TableView{sampleView()} }}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := gin.New()
	router.GET("/events", NewEventHandler(facade, logger).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/events")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	select {
	case <-facade.Subscribed():
	case <-time.After(time.Second):
		t.Fatal("stream did not subscribe")
	}
	facade.EmitView(sampleView())
	facade.EmitNotice(model.Notice{Level: model.NoticeError, TableID: 5, Message: "confirm failed"})
	facade.EmitTablesChanged(model.TablesChanged{TableIDs: []int{5}})

	want := []string{dto.EventSnapshot, dto.EventTable, dto.EventNotice, dto.EventTablesChanged}
	var got []string
	scanner := bufio.NewScanner(resp.Body)
	for len(got) < len(want) && scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
			got = append(got, name)
		}
	}
	_ = resp.Body.Close()

	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}

	deadline := time.Now().Add(time.Second)
	for facade.Unsubscribes() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected all subscriptions released, got %d", facade.Unsubscribes())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEventHandlerStreamKeepsLatestTableView(t *testing.T) {
	facade := &testhelpers.BoardFacadeStub{TablesFn: func() []model.TableView { return nil }}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := gin.New()
	router.GET("/events", NewEventHandler(facade, logger).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(server.URL + "/events")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	select {
	case <-facade.Subscribed():
	case <-time.After(time.Second):
		t.Fatal("stream did not subscribe")
	}
	const updates = 4 * eventBuffer
	for i := 1; i <= updates; i++ {
		view := sampleView()
		view.OrderCount = i
		facade.EmitView(view)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event:"); ok {
			event = name
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok || event != dto.EventTable {
			continue
		}
		var view dto.TableViewResponse
		if err := json.Unmarshal([]byte(data), &view); err != nil {
			t.Fatalf("decode table event %q: %v", data, err)
		}
		if view.OrderCount == updates {
			return
		}
	}
	t.Fatalf("stream ended before the latest view arrived: %v", scanner.Err())
}

func TestEventQueue(t *testing.T) {
	q := newEventQueue(1)
	q.pushView(5, dto.Event{Name: dto.EventTable, Data: 1})
	if !q.push(dto.Event{Name: dto.EventNotice, Data: "a"}) {
		t.Fatal("expected first notice to be queued")
	}
	if q.push(dto.Event{Name: dto.EventNotice, Data: "b"}) {
		t.Fatal("expected notice over the limit to be dropped")
	}
	q.pushView(5, dto.Event{Name: dto.EventTable, Data: 2})
	q.pushView(6, dto.Event{Name: dto.EventTable, Data: 3})

	select {
	case <-q.ready:
	default:
		t.Fatal("expected queue to signal readiness")
	}
	got := q.drain()
	want := []dto.Event{
		{Name: dto.EventTable, Data: 2},
		{Name: dto.EventNotice, Data: "a"},
		{Name: dto.EventTable, Data: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if !q.push(dto.Event{Name: dto.EventNotice, Data: "c"}) {
		t.Fatal("drain must reset the notice budget")
	}
	q.pushView(5, dto.Event{Name: dto.EventTable, Data: 4})
	if got := q.drain(); len(got) != 2 || got[1].Data != 4 {
		t.Fatalf("unexpected events after drain %v", got)
	}
}

func TestEventHandlerSubscribeError(t *testing.T) {
	facade := &testhelpers.BoardFacadeStub{TablesChangedErr: errors.New("nats down")}
	h := NewEventHandler(facade, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	resp := performRequest(t, http.MethodGet, "/events", "/events", h.Stream, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
