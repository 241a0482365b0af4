package notification

import (
	"log/slog"
)

// LogRecorder writes delivery outcomes to the structured log.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(res Result) {
	attrs := []any{
		slog.String("order_id", res.OrderID),
		slog.String("channel", res.Channel),
		slog.String("outcome", string(res.Outcome)),
		slog.Duration("duration", res.Duration),
	}
	if res.Err != nil {
		attrs = append(attrs, slog.String("reason", res.Err.Error()))
	}

	switch res.Outcome {
	case OutcomeSent:
		r.logger.Info("notification delivered", attrs...)
	case OutcomeSkipped:
		r.logger.Debug("notification skipped", attrs...)
	case OutcomeDropped:
		r.logger.Warn("notification dropped", attrs...)
	default:
		r.logger.Error("notification failed", attrs...)
	}
}
