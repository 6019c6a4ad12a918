package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"pillar-backend/internal/domain"
	"pillar-backend/internal/metrics"
)

// PushSender delivers mobile push notifications.
type PushSender interface {
	Enabled() bool
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

// ChatSender posts a plain text message to a chat.
type ChatSender interface {
	Enabled() bool
	Send(ctx context.Context, text string) error
}

// SignalNotifier alerts on BUY CALLS and BUY PUTS. The same session and
// recommendation is not repeated within the cooldown.
type SignalNotifier struct {
	push     PushSender
	chat     ChatSender
	devices  domain.DeviceRegistry
	cooldown time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time

	notified map[string]time.Time // session|recommendation -> last sent
	mu       sync.Mutex
}

// NewSignalNotifier wires the channels. Either sender may be nil.
func NewSignalNotifier(push PushSender, chat ChatSender, devices domain.DeviceRegistry, cooldown time.Duration, m *metrics.Metrics) *SignalNotifier {
	return &SignalNotifier{
		push:     push,
		chat:     chat,
		devices:  devices,
		cooldown: cooldown,
		metrics:  m,
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
}

func (n *SignalNotifier) pushEnabled() bool {
	return n.push != nil && n.push.Enabled()
}

func (n *SignalNotifier) chatEnabled() bool {
	return n.chat != nil && n.chat.Enabled()
}

// Notify sends res through every configured channel when it is actionable.
func (n *SignalNotifier) Notify(ctx context.Context, res domain.Result) {
	if !res.Recommendation.IsActionable() {
		return
	}
	if !n.pushEnabled() && !n.chatEnabled() {
		return
	}

	key := res.SessionID + "|" + string(res.Recommendation)
	now := n.now()

	n.mu.Lock()
	last, seen := n.notified[key]
	if seen && now.Sub(last) < n.cooldown {
		n.mu.Unlock()
		return
	}
	// reserve the slot so concurrent evaluations do not double-send
	n.notified[key] = now
	n.mu.Unlock()

	title, body := notificationText(res)
	sent := false

	if n.pushEnabled() {
		if tokens := n.devices.Tokens(res.SessionID); len(tokens) > 0 {
			data := map[string]string{
				"sessionId":      res.SessionID,
				"evaluationId":   res.ID,
				"recommendation": string(res.Recommendation),
				"score":          fmt.Sprintf("%.1f", res.TotalScore),
				"trend":          string(res.Trend),
			}
			if err := n.push.SendMulticast(ctx, tokens, title, body, data); err != nil {
				log.Error().Err(err).Str("session", res.SessionID).Msg("push notification failed")
				n.metrics.IncNotification("fcm", "error")
			} else {
				sent = true
				n.metrics.IncNotification("fcm", "sent")
				log.Info().Str("session", res.SessionID).Int("devices", len(tokens)).Msg("push notification sent")
			}
		}
	}

	if n.chatEnabled() {
		if err := n.chat.Send(ctx, title+"\n"+body); err != nil {
			log.Error().Err(err).Str("session", res.SessionID).Msg("telegram notification failed")
			n.metrics.IncNotification("telegram", "error")
		} else {
			sent = true
			n.metrics.IncNotification("telegram", "sent")
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if !sent && n.notified[key].Equal(now) {
		delete(n.notified, key)
	}
	for k, ts := range n.notified {
		if now.Sub(ts) > n.cooldown*2 {
			delete(n.notified, k)
		}
	}
}

func notificationText(res domain.Result) (string, string) {
	emoji := "🟢"
	if res.Recommendation == domain.BuyPuts {
		emoji = "🔴"
	}
	title := fmt.Sprintf("%s %s - %.0f%%", emoji, res.Recommendation, res.TotalScore)
	body := fmt.Sprintf("SPY %s | Price %.2f | %s", res.Trend, res.Price, res.Context.Kind.Label())
	return title, body
}
