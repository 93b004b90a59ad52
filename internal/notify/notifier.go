package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Message is a notification about an application.
type Message struct {
	Subject string
	Body    string
	// URL points to the job posting when known.
	URL string
}

// Notifier delivers messages to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Multi fans a message out to several notifiers.
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

var _ Notifier = (*Multi)(nil)

func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

// Notify sends msg through every notifier. Individual failures are logged;
// an error is returned only if all of them fail.
func (m *Multi) Notify(ctx context.Context, msg Message) error {
	if len(m.notifiers) == 0 {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			m.logger.Error("notification failed", zap.String("notifier", n.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}

	if len(errs) == len(m.notifiers) {
		return errors.Join(errs...)
	}
	m.logger.Info("notifications complete",
		zap.Int("sent", len(m.notifiers)-len(errs)),
		zap.Int("failed", len(errs)),
	)
	return nil
}
