// Package handler exposes the certificate API over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"covault/internal/certificate/service"
	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
	"covault/pkg/platform/httputil"
	"covault/pkg/requestcontext"
)

// Handler serves the certificate endpoints.
type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterRoutes mounts the authenticated certificate endpoints. The caller
// wraps the router group in the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/insuranceCertificates", h.Create)
	r.Get("/insuranceCertificates", h.List)
	r.Get("/insuranceCertificates/{id}", h.Get)
	r.Put("/insuranceCertificates/{id}", h.Update)
	r.Delete("/insuranceCertificates/{id}", h.Delete)
	r.Post("/insuranceCertificates/{id}/share", h.Share)
}

// RegisterPublicRoutes mounts the tokenized endpoints. These bypass
// authentication entirely; the share token is the credential.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/insuranceCertificates/public/{token}", h.PublicView)
	r.Post("/insuranceCertificates/public/{token}/accept", h.PublicAccept)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	req, ok := httputil.DecodeAndPrepare[createCertificateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	cert, err := h.service.Create(ctx, userID, req.toService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certs, err := h.service.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listCertificatesResponse{Certificates: certs})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}

	cert, err := h.service.Get(ctx, requestcontext.UserID(ctx), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[updateCertificateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	cert, err := h.service.Update(ctx, requestcontext.UserID(ctx), certID, req.toService())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}

	if err := h.service.Delete(ctx, requestcontext.UserID(ctx), certID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	certID, err := id.ParseCertificateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate not found"))
		return
	}

	cert, err := h.service.Share(ctx, requestcontext.UserID(ctx), certID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cert)
}

func (h *Handler) PublicView(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.GetByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPublicResponse(cert))
}

func (h *Handler) PublicAccept(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.AcceptByShareToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPublicResponse(cert))
}
