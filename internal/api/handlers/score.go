package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/astrobet/internal/contracts"
	"github.com/wonny/astrobet/pkg/logger"
	"github.com/wonny/astrobet/pkg/redis"
)

const (
	defaultTopLimit = 25
	maxTopLimit     = 500
)

// ScoreHandler serves persisted influence scores
type ScoreHandler struct {
	reader contracts.ScoreReader
	cache  *redis.Cache
	logger *logger.Logger
}

// NewScoreHandler creates a new score handler. cache may be nil.
func NewScoreHandler(reader contracts.ScoreReader, cache *redis.Cache, log *logger.Logger) *ScoreHandler {
	return &ScoreHandler{
		reader: reader,
		cache:  cache,
		logger: log,
	}
}

// Get returns one entity's score
// GET /api/v1/scores/{id}
func (h *ScoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	var rec contracts.ScoreRecord
	var err error
	if h.cache != nil {
		err = h.cache.GetOrSet(ctx, redis.ScoreKey(id), &rec, redis.TTLShort, func() (interface{}, error) {
			return h.reader.GetScore(ctx, id)
		})
	} else {
		var found *contracts.ScoreRecord
		found, err = h.reader.GetScore(ctx, id)
		if found != nil {
			rec = *found
		}
	}

	if errors.Is(err, contracts.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No score for "+id)
		return
	}
	if err != nil {
		h.logger.WithEntity(id, "").WithError(err).Error("Failed to get score")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve score")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// Top returns the highest scores
// GET /api/v1/scores?limit=N
func (h *ScoreHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopLimit {
			respondError(w, http.StatusBadRequest, "limit must be an integer in [1,500]")
			return
		}
		limit = n
	}

	records, err := h.reader.TopScores(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list top scores")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve scores")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(records),
		"scores": records,
	})
}
