package common

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WithRequestLogger returns a context carrying a child of the global logger
// tagged with a fresh request id, and that id.
func WithRequestLogger(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	logger := log.With().Str("request_id", id).Logger()
	return logger.WithContext(ctx), id
}

// Logger returns the logger carried by ctx, or the global logger.
func Logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
