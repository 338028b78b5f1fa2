package app

import (
	"context"

	"keel/internal/events"
	"keel/pkg/logging"
)

// logEvents writes every bus event to the log until ctx ends or the bus
// closes. Failures are logged as errors, everything else at debug level.
func logEvents(ctx context.Context, ch <-chan events.Event) {
	messages := events.NewMessageTemplateEngine()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := ev.Err(); err != nil {
				logging.Error("Events", err, "%s", messages.Render(ev))
				continue
			}
			logging.Debug("Events", "%s", messages.Render(ev))
		}
	}
}
