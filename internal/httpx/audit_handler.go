package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

type AuditHandler struct {
	Manager *flowers.Manager
}

func (h *AuditHandler) Register(r chi.Router) {
	r.Get("/audit", h.list)
}

func (h *AuditHandler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.Manager.ListAuditEntries(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []flowers.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, out)
}
