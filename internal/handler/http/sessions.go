package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/syncer"
)

type allowRequest struct {
	Addr string `json:"addr"`
}

// sessions reports every live device session for status surfaces.
func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.engine.Sessions()); err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("error encoding sessions")
	}
}

// allow records the user's trust decision for the device at the given
// address.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req allowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Addr == "" {
		http.Error(w, "missing session address", http.StatusBadRequest)
		return
	}

	if err := h.engine.Allow(r.Context(), req.Addr); err != nil {
		if errors.Is(err, syncer.ErrNoSessionForAddress) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("addr", req.Addr).Msg("error recording trust decision")
		http.Error(w, "error recording trust decision", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
