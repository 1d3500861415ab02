package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harshvardhansingh3000/flower-inventory/internal/auth"
	"github.com/harshvardhansingh3000/flower-inventory/internal/flowers"
)

type UsersHandler struct {
	Auth *auth.Service
}

func (h *UsersHandler) RegisterPublic(r chi.Router) {
	r.Post("/users/register", h.register)
	r.Post("/users/login", h.login)
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users/profile", h.profile)
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	u, err := h.Auth.Register(r.Context(), req.Username, req.Password, flowers.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, flowers.ErrInvalidInput)
		return
	}
	token, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Profile(r.Context(), actorFrom(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
