package http

import (
	"github.com/lovettlabs/contactsync/internal/logger"
)

type Handler struct {
	engine SyncEngine

	logger *logger.Logger
}

func NewHandler(engine SyncEngine, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		engine: engine,
		logger: logger,
	}
}
