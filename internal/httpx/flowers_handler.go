package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
	"github.com/harshvardhansingh3000/flower-inventory/internal/redisx"
)

type FlowersHandler struct {
	Manager *flowers.Manager
	Redis   *redis.Client
}

// RegisterPublic mounts the read-only catalog routes that need no token.
func (h *FlowersHandler) RegisterPublic(r chi.Router) {
	r.Get("/flowers", h.list)
	r.Get("/flowers/search", h.search)
}

func (h *FlowersHandler) Register(r chi.Router) {
	r.Get("/flowers/low-stock", h.listLowStock)
	r.Get("/flowers/{id}", h.get)
	r.Post("/flowers", h.create)
	r.Put("/flowers/{id}", h.update)
	r.Delete("/flowers/{id}", h.delete)
}

func (h *FlowersHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Manager.ListItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []flowers.Flower{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *FlowersHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minQty := -1
	if v := q.Get("min_quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, flowers.ErrInvalidInput)
			return
		}
		minQty = n
	}
	out, err := h.Manager.SearchItems(r.Context(), q.Get("name"), minQty)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []flowers.Flower{}
	}
	writeJSON(w, http.StatusOK, out)
}

// listLowStock serves the cached report when redis has a fresh copy;
// the cache is best-effort, the DB stays the source of truth.
func (h *FlowersHandler) listLowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, redisx.KeyLowStockReport).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	out, err := h.Manager.ListLowStock(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []flowers.LowStockItem{}
	}
	b, _ := json.Marshal(out)
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, redisx.KeyLowStockReport, b, redisx.TTLLowStockReport).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *FlowersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := h.Manager.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type flowerReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	Threshold   int    `json:"threshold"`
}

func (h *FlowersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req flowerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	f, err := h.Manager.CreateItem(r.Context(), actorFrom(r), flowers.Flower{
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Threshold:   req.Threshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *FlowersHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req flowerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	f, err := h.Manager.UpdateItem(r.Context(), actorFrom(r), flowers.Flower{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Quantity:    req.Quantity,
		Threshold:   req.Threshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *FlowersHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Manager.DeleteItem(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "flower deleted"})
}
