// Package api exposes the category views and user intents over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/SurajNatekar28/token-trading-table/internal/dataset"
	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/observability"
)

const (
	maxBodyBytes   = 1 << 20
	commandTimeout = 5 * time.Second
)

// Dataset is the controller surface the handlers need.
type Dataset interface {
	Views() *dataset.Views
	Criteria() dataset.Criteria
	SwitchChain(ctx context.Context, chain domain.Chain) error
	SetFilter(ctx context.Context, criteria domain.FilterCriteria) error
	SetSort(ctx context.Context, category domain.Category, spec domain.SortSpec) error
}

type handler struct {
	ds     Dataset
	logger *zap.Logger
}

// NewRouter builds the HTTP router.
func NewRouter(ds Dataset, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{ds: ds, logger: logger.Named("api")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(h.logger))

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", observability.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(commandTimeout))

		r.Get("/views", h.getViews)
		r.Get("/views/{category}", h.getCategory)
		r.Post("/chain", h.switchChain)
		r.Get("/filter", h.getFilter)
		r.Put("/filter", h.setFilter)
		r.Put("/sort/{category}", h.setSort)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownChain),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrInvalidSort),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, dataset.ErrStopped),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

type healthResponse struct {
	Status  string       `json:"status"`
	Chain   domain.Chain `json:"chain"`
	Loading bool         `json:"loading"`
	Version uint64       `json:"version"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	v := h.ds.Views()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Chain:   v.Chain,
		Loading: v.Loading,
		Version: v.Version,
	})
}

func (h *handler) getViews(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ds.Views())
}

type categoryResponse struct {
	Chain    domain.Chain    `json:"chain"`
	Category domain.Category `json:"category"`
	Tokens   []domain.Token  `json:"tokens"`
	Loading  bool            `json:"loading"`
	Pending  bool            `json:"pending"`
	Version  uint64          `json:"version"`
}

func (h *handler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	v := h.ds.Views()
	writeJSON(w, http.StatusOK, categoryResponse{
		Chain:    v.Chain,
		Category: category,
		Tokens:   v.Category(category),
		Loading:  v.Loading,
		Pending:  v.Pending,
		Version:  v.Version,
	})
}

type chainRequest struct {
	Chain string `json:"chain"`
}

type chainResponse struct {
	Chain   domain.Chain `json:"chain"`
	Loading bool         `json:"loading"`
}

func (h *handler) switchChain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	chain, err := domain.ParseChain(req.Chain)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.ds.SwitchChain(r.Context(), chain); err != nil {
		h.writeError(w, err)
		return
	}

	v := h.ds.Views()
	writeJSON(w, http.StatusOK, chainResponse{Chain: chain, Loading: v.Loading})
}

func (h *handler) getFilter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ds.Criteria())
}

func (h *handler) setFilter(w http.ResponseWriter, r *http.Request) {
	var criteria domain.FilterCriteria
	if err := decodeBody(w, r, &criteria); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.ds.SetFilter(r.Context(), criteria); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, h.ds.Criteria())
}

func (h *handler) setSort(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var spec domain.SortSpec
	if err := decodeBody(w, r, &spec); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.ds.SetSort(r.Context(), category, spec); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.ds.Criteria())
}
