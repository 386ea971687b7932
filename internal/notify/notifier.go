// Package notify delivers steamer alerts and status notices over external
// channels. Delivery is confirmed, not fire-and-forget: callers learn whether
// at least one channel accepted the message, because alert history must only
// advance after a human could actually have seen the alert.
package notify

import (
	"context"
	"log/slog"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to every registered sender.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Send delivers the message to all senders and reports whether at least one
// confirmed delivery. A Notifier with no senders confirms nothing.
func (n *Notifier) Send(ctx context.Context, title, message string) bool {
	delivered := false
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.WarnContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		delivered = true
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	return delivered
}
