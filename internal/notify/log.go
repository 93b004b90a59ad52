package notify

import (
	"context"

	"go.uber.org/zap"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes messages to the logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

// Notify never fails.
func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	fields := []zap.Field{zap.String("subject", msg.Subject)}
	if msg.URL != "" {
		fields = append(fields, zap.String("url", msg.URL))
	}
	n.logger.Info("notification", append(fields, zap.String("body", msg.Body))...)
	return nil
}
