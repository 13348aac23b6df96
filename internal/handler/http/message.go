package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/lovettlabs/contactsync/internal/logger"
	"github.com/lovettlabs/contactsync/internal/protocol"
)

// message is the single wire endpoint: one encoded envelope in, at most one
// encoded envelope out. The device's identity is its remote address; the
// engine normalizes it to the session key.
func (h *Handler) message(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Warn().Err(err).Msg("error reading envelope body")
		http.Error(w, "error reading request body", http.StatusBadRequest)
		return
	}

	inbound, err := protocol.Decode(body)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownCommand) {
			// Commands outside the vocabulary are dropped, never answered.
			log.Warn().Err(err).Msg("dropping unknown command")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Warn().Err(err).Msg("malformed envelope")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := h.engine.OnMessage(r.Context(), r.RemoteAddr, inbound)
	if response == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(protocol.Encode(*response))
}
