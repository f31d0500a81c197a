package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-stock-allocation/internal/allocation"
	"github.com/ariefcatur/go-stock-allocation/internal/dispatch"
	"github.com/ariefcatur/go-stock-allocation/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// BatchReader is the read-only slice of the repo the handlers need.
type BatchReader interface {
	ListBatches(ctx context.Context, sku string) ([]allocation.BatchRecord, error)
	GetAllocation(ctx context.Context, orderID, sku string) (string, bool, error)
}

type AllocationsHandler struct {
	Dispatcher *dispatch.Dispatcher
	Batches    BatchReader
	Redis      *redis.Client
	Service    string
}

type AllocateReq struct {
	OrderID string `json:"order_id"`
	SKU     string `json:"sku"`
	Qty     int    `json:"qty"`
}

type AllocateResp struct {
	BatchRef string `json:"batch_ref"`
}

type AddBatchReq struct {
	Reference string `json:"reference"`
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
	ETA       string `json:"eta,omitempty"` // YYYY-MM-DD
}

func (h *AllocationsHandler) Register(r *chi.Mux) {
	r.Post("/allocate", h.allocate)
	r.Post("/batches", h.addBatch)
	r.Get("/batches", h.listBatches)
	r.Get("/allocations/{order_id}", h.getAllocation)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *AllocationsHandler) allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.OrderID == "" || req.SKU == "" || req.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	batchRef, err := h.Dispatcher.Dispatch(ctx, allocation.AllocateRequired{
		OrderID: req.OrderID, SKU: req.SKU, Qty: req.Qty,
	})
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	// cache buat GET /allocations; DB tetap jadi kebenaran
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyAllocResult, req.OrderID, req.SKU)
		_ = h.Redis.Set(ctx, key, batchRef, redisx.TTLAllocResult).Err()
	}

	writeJSON(w, http.StatusCreated, AllocateResp{BatchRef: batchRef})
}

func statusFor(err error) int {
	var invalid allocation.InvalidSKUError
	var oos allocation.OutOfStockError
	switch {
	case errors.As(err, &invalid), errors.As(err, &oos):
		return http.StatusBadRequest
	case errors.Is(err, allocation.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *AllocationsHandler) addBatch(w http.ResponseWriter, r *http.Request) {
	var req AddBatchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Reference == "" || req.SKU == "" || req.Qty <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	var eta *time.Time
	if req.ETA != "" {
		t, err := time.Parse("2006-01-02", req.ETA)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid eta, want YYYY-MM-DD"})
			return
		}
		eta = &t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Dispatcher.Dispatch(ctx, allocation.BatchCreate{
		Reference: req.Reference, SKU: req.SKU, Qty: req.Qty, ETA: eta,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": msg})
}

func (h *AllocationsHandler) listBatches(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("sku")
	if sku == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing sku"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	batches, err := h.Batches.ListBatches(ctx, sku)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

func (h *AllocationsHandler) getAllocation(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	sku := r.URL.Query().Get("sku")
	if orderID == "" || sku == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing order_id or sku"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyAllocResult, orderID, sku)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, AllocateResp{BatchRef: s})
			return
		}
	}

	// 2) fallback DB
	batchRef, found, err := h.Batches.GetAllocation(ctx, orderID, sku)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyAllocResult, orderID, sku)
		_ = h.Redis.Set(ctx, key, batchRef, redisx.TTLAllocResult).Err()
	}
	writeJSON(w, http.StatusOK, AllocateResp{BatchRef: batchRef})
}
