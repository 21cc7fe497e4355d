// Package handler exposes the user profile endpoints.
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"covault/internal/user/service"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/httputil"
	"covault/pkg/requestcontext"
)

// Handler serves the user profile endpoints.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterRoutes mounts the profile endpoints; all of them require an
// authenticated caller.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me", h.Me)
	r.Put("/users/{id}", h.Update)
	r.Delete("/users/{id}", h.Delete)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.service.Get(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name string `json:"name"`
}

func (r *updateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	user, err := h.service.Update(ctx, requestcontext.UserID(ctx), targetID, service.UpdateRequest{Name: req.Name})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
		return
	}

	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), targetID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
