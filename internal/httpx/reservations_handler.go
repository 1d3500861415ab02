package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

type ReservationsHandler struct {
	Manager *flowers.Manager
}

func (h *ReservationsHandler) Register(r chi.Router) {
	r.Post("/reservations", h.create)
	r.Get("/reservations", h.list)
	r.Get("/reservations/{id}", h.get)
	r.Put("/reservations/{id}", h.update)
	r.Delete("/reservations/{id}", h.delete)
	r.Post("/reservations/process/{id}", h.process)
	r.Delete("/reservations/processed", h.deleteProcessed)
}

const dateLayout = "2006-01-02"

type createReservationReq struct {
	FlowerID  int64  `json:"flower_id"`
	Quantity  int    `json:"quantity"`
	SellDate  string `json:"sell_date"`
	PartyName string `json:"party_name"`
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, flowers.ErrInvalidInput
	}
	return id, nil
}

func (h *ReservationsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	sellDate, err := time.Parse(dateLayout, req.SellDate)
	if err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	res, err := h.Manager.CreateReservation(r.Context(), actorFrom(r), flowers.CreateReservationInput{
		FlowerID:  req.FlowerID,
		Quantity:  req.Quantity,
		SellDate:  sellDate,
		PartyName: req.PartyName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReservationsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f flowers.ReservationFilter
	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"user_id", &f.UserID},
		{"processed_by", &f.ProcessedBy},
	} {
		if v := q.Get(p.name); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, flowers.ErrInvalidInput)
				return
			}
			*p.dst = id
		}
	}
	f.PartyName = q.Get("party")
	f.FlowerName = q.Get("flower")
	f.Month = q.Get("month")

	out, err := h.Manager.ListReservations(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []flowers.Reservation{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReservationsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Manager.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type updateReservationReq struct {
	FlowerID  *int64  `json:"flower_id"`
	Quantity  *int    `json:"quantity"`
	SellDate  *string `json:"sell_date"`
	PartyName *string `json:"party_name"`
	Status    *string `json:"status"`
}

func (h *ReservationsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	u := flowers.ReservationUpdate{
		FlowerID:  req.FlowerID,
		Quantity:  req.Quantity,
		PartyName: req.PartyName,
	}
	if req.SellDate != nil {
		d, err := time.Parse(dateLayout, *req.SellDate)
		if err != nil {
			writeError(w, flowers.ErrInvalidInput)
			return
		}
		u.SellDate = &d
	}
	if req.Status != nil {
		st := flowers.ReservationStatus(*req.Status)
		u.Status = &st
	}
	res, err := h.Manager.UpdateReservation(r.Context(), actorFrom(r), id, u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Manager.DeleteReservation(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "reservation deleted"})
}

func (h *ReservationsHandler) process(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Manager.ProcessReservation(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) deleteProcessed(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Manager.DeleteAllProcessed(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted_ids": ids})
}
