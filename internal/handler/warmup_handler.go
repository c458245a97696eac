// internal/handler/warmup_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/sendramp/sendramp-backend/internal/errors"
	"github.com/sendramp/sendramp-backend/internal/warmup"
)

// WarmupHandler exposes the warmup admin operations as thin wrappers over
// the controller.
type WarmupHandler struct {
	Controller *warmup.Controller
}

func (h *WarmupHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.Start(r.Context()); err != nil {
		warmupError(w, err)
		return
	}
	h.Status(w, r)
}

func (h *WarmupHandler) Pause(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Reason == "" {
		http.Error(w, "reason is required", http.StatusBadRequest)
		return
	}

	if err := h.Controller.Pause(r.Context(), body.Reason); err != nil {
		warmupError(w, err)
		return
	}
	h.Status(w, r)
}

func (h *WarmupHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.Controller.Resume(r.Context()); err != nil {
		warmupError(w, err)
		return
	}
	h.Status(w, r)
}

func (h *WarmupHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetDay *int `json:"target_day"`
	}
	// Empty body means "advance one day".
	_ = json.NewDecoder(r.Body).Decode(&body)

	cfg, err := h.Controller.AdvanceDay(r.Context(), body.TargetDay)
	if err != nil {
		warmupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *WarmupHandler) Status(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Controller.Status(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *WarmupHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, warmup.Schedule())
}

// warmupError maps state-machine rejections to 409, everything else to 500.
func warmupError(w http.ResponseWriter, err error) {
	var invalid *appErrors.InvalidStateError
	if errors.As(err, &invalid) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
