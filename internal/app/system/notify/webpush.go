// internal/app/system/notify/webpush.go
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/decisionjar/decisionjar/internal/domain/models"
)

// VAPIDConfig holds the keys and contact address used to sign web-push
// requests.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string // mailto: or https: contact, required by push services
	TTL        int    // seconds the push service may retain an undelivered message
	Timeout    time.Duration
}

// WebPusher delivers payloads over the Web Push protocol. A per-endpoint
// timeout is applied to every send; hitting it is reported like any
// other per-endpoint failure.
type WebPusher struct {
	cfg    VAPIDConfig
	client *http.Client
}

// NewWebPusher builds the production Pusher.
func NewWebPusher(cfg VAPIDConfig) *WebPusher {
	if cfg.TTL <= 0 {
		cfg.TTL = 3600
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebPusher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send pushes one payload to one endpoint. HTTP 404/410 from the push
// service means the subscription is permanently invalid and maps to
// ErrEndpointGone so the dispatcher can prune it.
func (p *WebPusher) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s, &webpush.Options{
		HTTPClient:      p.client,
		Subscriber:      p.cfg.Subscriber,
		VAPIDPublicKey:  p.cfg.PublicKey,
		VAPIDPrivateKey: p.cfg.PrivateKey,
		TTL:             p.cfg.TTL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w (status %d)", ErrEndpointGone, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}
