package telemetry

import (
	"context"

	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
)

// LogSink writes one line per invocation. Successes log at Info, bad user
// input at Warn and backend failures at Error with the cause attached.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("invocations")}
}

func (s *LogSink) Record(_ context.Context, rec router.Record) {
	fields := []zap.Field{
		zap.String("invocation_id", rec.InvocationID),
		zap.String("source", rec.Source),
		zap.String("user", rec.User),
		zap.String("command", rec.Command),
		zap.String("operation", rec.Operation),
		zap.Stringer("outcome", rec.Outcome.Kind),
		zap.Duration("duration", rec.Duration),
	}

	switch rec.Outcome.Kind {
	case router.KindSuccess:
		s.logger.Info("command completed", append(fields, zap.Int64("value", rec.Outcome.Value))...)
	case router.KindUnknownCommand, router.KindUnsupportedOperation:
		s.logger.Warn("command rejected", fields...)
	default:
		s.logger.Error("command failed", append(fields, zap.Error(rec.Outcome.Cause))...)
	}
}
