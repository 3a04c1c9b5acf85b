package extraction

import (
	"context"

	"github.com/poiesic/tabulate/core"
)

// ModeRouter is the Document service that honours the request's parsing
// mode: text mode goes to Text, multimodal mode goes to Multimodal.
type ModeRouter struct {
	Text       Service
	Multimodal Service
}

var _ Service = (*ModeRouter)(nil)

// Invoke forwards the task to the service for its parsing mode.
func (r *ModeRouter) Invoke(ctx context.Context, task core.DocumentTask) (Payload, error) {
	if task.ParsingMode == core.ParsingModeMultimodal && r.Multimodal != nil {
		return r.Multimodal.Invoke(ctx, task)
	}
	return r.Text.Invoke(ctx, task)
}
