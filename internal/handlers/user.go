package handlers

import (
	"net/http"

	"github.com/diewo77/go-pos/httpx"
	"github.com/diewo77/go-pos/internal/models"
	"github.com/diewo77/go-pos/internal/services"
)

// UserHandler serves the admin-only user directory.
type UserHandler struct {
	svc *services.UserService
	// onChange is called after a user's role or existence changes.
	onChange func(userID uint)
}

func NewUserHandler(svc *services.UserService, onChange func(userID uint)) *UserHandler {
	if onChange == nil {
		onChange = func(uint) {}
	}
	return &UserHandler{svc: svc, onChange: onChange}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)
	result, err := h.svc.ListUsers(r.Context(), page, perPage)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string          `json:"username"`
		Password string          `json:"password"`
		Role     models.UserRole `json:"role"`
	}
	if !decode(w, r, &input) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), input.Username, input.Password, input.Role)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	var input services.UserUpdate
	if !decode(w, r, &input) {
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), id, input)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	h.onChange(id)
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	h.onChange(id)
	w.WriteHeader(http.StatusNoContent)
}
