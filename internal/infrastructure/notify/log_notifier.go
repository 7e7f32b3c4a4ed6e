package notify

import (
	"context"

	"archie-core-shopify-sync/internal/domain"

	"github.com/rs/zerolog"
)

// LogNotifier reports sync failures to the log
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that writes failures at error level
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the failed segment
func (n *LogNotifier) Notify(ctx context.Context, tenantID string, segment domain.Segment, message string) {
	n.logger.Error().
		Str("tenantId", tenantID).
		Str("segment", string(segment)).
		Str("error", message).
		Msg("Sync failure")
}

// Close is a no-op
func (n *LogNotifier) Close() error {
	return nil
}
