package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"burnout-risk/internal/common"
	"burnout-risk/internal/ml"
	"burnout-risk/internal/scores"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// maxRequestBytes bounds a prediction request body.
const maxRequestBytes = 1 << 20

// PredictionRequest represents the incoming prediction request
type PredictionRequest struct {
	UserID string            `json:"user_id"`
	Series []scores.RawPoint `json:"series"`
}

// ModelInfo describes the served artifact.
type ModelInfo struct {
	Version      string             `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	Features     []string           `json:"features"`
	Metrics      ml.Metrics         `json:"metrics"`
	TrainingRows int                `json:"training_rows"`
	Importance   []ml.FeatureWeight `json:"importance"`
	Drift        ml.DriftReport     `json:"drift"`
}

type Handler struct {
	predictor *ml.Predictor
	store     *ml.ModelStore
	lister    VersionLister
}

func NewHandler(predictor *ml.Predictor, store *ml.ModelStore, versions VersionLister) *Handler {
	return &Handler{predictor: predictor, store: store, lister: versions}
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		badRequest(w, r, fmt.Sprintf("invalid request: %v", err))
		return
	}

	series, err := scores.ParseSeries(req.UserID, req.Series)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pred, err := h.predictor.Predict(req.UserID, series)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Health())
}

func (h *Handler) modelInfo(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Current()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ModelInfo{
		Version:      a.Version,
		CreatedAt:    a.CreatedAt,
		Features:     a.Features,
		Metrics:      a.Metrics,
		TrainingRows: a.TrainingRows,
		Importance:   ml.Importance(a),
		Drift:        h.predictor.DriftReport(),
	})
}

// ReloadErrorResponse reports a failed reload while the previous artifact keeps
// serving.
type ReloadErrorResponse struct {
	ErrorResponse
	Health ml.Health `json:"health"`
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(); err != nil {
		if _, cerr := h.store.Current(); cerr != nil {
			writeError(w, r, err)
			return
		}
		log.Warn().Err(err).Str("model_path", h.store.Path()).Msg("Reload failed, previous model still served")
		writeJSON(w, http.StatusConflict, ReloadErrorResponse{
			ErrorResponse: ErrorResponse{
				Error:     err.Error(),
				Kind:      common.KindOf(err),
				RequestID: middleware.GetReqID(r.Context()),
			},
			Health: h.store.Health(),
		})
		return
	}
	writeJSON(w, http.StatusOK, h.store.Health())
}

func (h *Handler) versions(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: errNoRegistry.Error(), Kind: common.KindInternal})
		return
	}
	versions, err := h.lister.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}
