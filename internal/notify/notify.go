package notify

import (
	"context"

	"log/slog"
)

// Event is an outbound notification (email/webhook payload).
type Event struct {
	Kind    string         `json:"kind"`
	Subject string         `json:"subject"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notification kinds.
const (
	KindMatchesReady = "matches_ready"
	KindMovedForward = "moved_forward"
)

// Notifier delivers events to the outside world. Delivery is fire-and-forget
// from the caller's point of view; use Fire to enforce that.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Analytics is the event sink. Same contract: never blocks, never escalates.
type Analytics interface {
	Track(ctx context.Context, name string, props map[string]any) error
}

// LogNotifier writes notifications to the structured log. Stand-in for a real
// email/webhook sender.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	l := n.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("notification", "kind", e.Kind, "subject", e.Subject, "data", e.Data)
	return nil
}

// LogAnalytics writes analytics events to the structured log.
type LogAnalytics struct {
	Logger *slog.Logger
}

func (a *LogAnalytics) Track(_ context.Context, name string, props map[string]any) error {
	l := a.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("analytics", "event", name, "props", props)
	return nil
}

// Fire delivers an event and swallows any failure. Notification failures are
// logged, never propagated to the triggering operation.
func Fire(ctx context.Context, n Notifier, logger *slog.Logger, e Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("notification delivery failed", "kind", e.Kind, "err", err)
	}
}

// Track emits an analytics event and swallows any failure.
func Track(ctx context.Context, a Analytics, logger *slog.Logger, name string, props map[string]any) {
	if a == nil {
		return
	}
	if err := a.Track(ctx, name, props); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("analytics emit failed", "event", name, "err", err)
	}
}
