// internal/app/system/notify/logpusher.go
package notify

import (
	"context"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.uber.org/zap"
)

// LogPusher records deliveries in the log instead of sending them. Used
// when VAPID keys are not configured, so the rest of the pipeline keeps
// working in dev environments.
type LogPusher struct {
	Log *zap.Logger
}

func (p *LogPusher) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	p.Log.Info("push delivery (log only)",
		zap.String("user_id", sub.UserID.Hex()),
		zap.String("endpoint", sub.Endpoint),
		zap.Int("payload_bytes", len(payload)))
	return nil
}
