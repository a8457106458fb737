package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe/internal/apperror"
	"github.com/rocketscienceinc/tictactoe/internal/entity"
)

var errBadPayload = errors.New("bad payload")

type matchController interface {
	State() entity.MatchState
	SelectMode(mode entity.Mode) bool
	RequestMove(cell int) bool
	Reset() bool
	Replay() bool
}

type handlers struct {
	logger     *slog.Logger
	controller matchController
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter exposes the match controller over JSON.
func NewRouter(logger *slog.Logger, controller matchController) http.Handler {
	h := &handlers{
		logger:     logger.With("component", "rest"),
		controller: controller,
	}

	r := chi.NewRouter()
	r.Get("/ping", pingHandler)
	r.Route("/match", func(r chi.Router) {
		r.Get("/", h.state)
		r.Post("/mode", h.selectMode)
		r.Post("/move", h.move)
		r.Post("/reset", h.reset)
		r.Post("/replay", h.replay)
	})

	return r
}

func (that *handlers) state(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.controller.State())
}

func (that *handlers) selectMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", errBadPayload, err))
		return
	}

	mode, err := entity.ParseMode(req.Mode)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	if !that.controller.SelectMode(mode) {
		that.writeError(w, http.StatusConflict, apperror.ErrModeNotSelectable)
		return
	}

	that.writeJSON(w, http.StatusOK, that.controller.State())
}

func (that *handlers) move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", errBadPayload, err))
		return
	}

	if req.Cell == nil {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: cell is required", errBadPayload))
		return
	}

	if !that.controller.RequestMove(*req.Cell) {
		that.writeError(w, http.StatusConflict, apperror.ErrMoveRejected)
		return
	}

	that.writeJSON(w, http.StatusOK, that.controller.State())
}

func (that *handlers) reset(w http.ResponseWriter, _ *http.Request) {
	if !that.controller.Reset() {
		that.writeError(w, http.StatusConflict, apperror.ErrResetRejected)
		return
	}

	that.writeJSON(w, http.StatusOK, that.controller.State())
}

func (that *handlers) replay(w http.ResponseWriter, _ *http.Request) {
	if !that.controller.Replay() {
		that.writeError(w, http.StatusConflict, apperror.ErrReplayRejected)
		return
	}

	that.writeJSON(w, http.StatusOK, that.controller.State())
}

func (that *handlers) writeError(w http.ResponseWriter, status int, err error) {
	that.logger.Debug("request rejected", "status", status, "error", err)
	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
