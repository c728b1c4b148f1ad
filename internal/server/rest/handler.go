// Package rest exposes the verification lifecycle over HTTP using chi.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/proofofplace/internal/common"
	"github.com/dmitrijs2005/proofofplace/internal/logging"
	"github.com/dmitrijs2005/proofofplace/internal/nostrx"
	"github.com/dmitrijs2005/proofofplace/internal/server/models"
	"github.com/dmitrijs2005/proofofplace/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type VerificationService interface {
	Prepare(ctx context.Context, in services.PrepareInput) (*services.PrepareResult, error)
	Finalize(ctx context.Context, token string, evt *nostrx.Event) (*services.VerificationWithNote, error)
	Verify(ctx context.Context, token string) (*services.VerifyResult, error)
	GetVerification(ctx context.Context, id string) (*services.VerificationWithNote, error)
	GetVerificationWithNote(ctx context.Context, id string) (*services.VerificationWithNote, error)
	GetNote(ctx context.Context, noteID string) (*services.VerificationWithNote, error)
	ListVerified(ctx context.Context) ([]*models.Verification, error)
	ListPendingByCreator(ctx context.Context, npub string) ([]*models.Verification, error)
}

type SessionIssuer interface {
	Issue(ctx context.Context, npub string) (*services.Session, error)
}

type Authenticator interface {
	FromHeader(header, method, url string) (string, error)
}

type Handler struct {
	verifications VerificationService
	sessions      SessionIssuer
	auth          Authenticator
	logger        logging.Logger
}

func NewHandler(vs VerificationService, ss SessionIssuer, a Authenticator, l logging.Logger) *Handler {
	return &Handler{
		verifications: vs,
		sessions:      ss,
		auth:          a,
		logger:        l.With("module", "rest"),
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

type finalizeRequest struct {
	Token       string        `json:"token"`
	SignedEvent *nostrx.Event `json:"signedEvent"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respond(w, r, status, errorResponse{Message: msg})
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and hidden from the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrSignatureInvalid):
		respondMessage(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrAlreadyUsed):
		respondMessage(w, r, http.StatusBadRequest, "Token has already been used")
	case errors.Is(err, common.ErrorNotFound):
		respondMessage(w, r, http.StatusNotFound, "Not found")
	case errors.Is(err, common.ErrAlreadyFinalized):
		respondMessage(w, r, http.StatusConflict, "Verification has already been finalized")
	case errors.Is(err, common.ErrNotFinalized):
		respondMessage(w, r, http.StatusConflict, "Verification has not been finalized yet")
	case errors.Is(err, common.ErrorUnauthorized):
		respondMessage(w, r, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondMessage(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Prepare(w http.ResponseWriter, r *http.Request) {
	var in services.PrepareInput
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		respondMessage(w, r, http.StatusBadRequest, "Invalid input")
		return
	}

	res, err := h.verifications.Prepare(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Token == "" || req.SignedEvent == nil {
		respondMessage(w, r, http.StatusBadRequest, "Missing token or signed event")
		return
	}

	res, err := h.verifications.Finalize(r.Context(), req.Token, req.SignedEvent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondMessage(w, r, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Token == "" {
		respondMessage(w, r, http.StatusBadRequest, "Token is required")
		return
	}

	res, err := h.verifications.Verify(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(w, r, http.StatusNotFound, "Invalid token")
			return
		}
		if errors.Is(err, common.ErrInvalidInput) {
			respondMessage(w, r, http.StatusBadRequest, "Invalid token format")
			return
		}
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, res)
}

func (h *Handler) lookup(fn func(ctx context.Context, id string) (*services.VerificationWithNote, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		respond(w, r, http.StatusOK, res)
	}
}

func (h *Handler) GetVerification(w http.ResponseWriter, r *http.Request) {
	h.lookup(h.verifications.GetVerification)(w, r)
}

func (h *Handler) GetVerificationWithNote(w http.ResponseWriter, r *http.Request) {
	h.lookup(h.verifications.GetVerificationWithNote)(w, r)
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	h.lookup(h.verifications.GetNote)(w, r)
}

func (h *Handler) ListVerified(w http.ResponseWriter, r *http.Request) {
	list, err := h.verifications.ListVerified(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.verifications.ListPendingByCreator(r.Context(), NpubFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, list)
}

// CreateSession exchanges a NIP-98 proof for a bearer session token.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if !strings.HasPrefix(strings.ToLower(header), "nostr ") {
		respondMessage(w, r, http.StatusUnauthorized, "NIP-98 authorization required")
		return
	}
	npub, err := h.auth.FromHeader(header, r.Method, requestURL(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	sess, err := h.sessions.Issue(r.Context(), npub)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, sess)
}
