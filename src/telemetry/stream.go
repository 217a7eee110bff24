package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/finapp-discord/src/router"
	"go.uber.org/zap"
)

const (
	DefaultStream     = "finapp.invocations"
	streamBufferSize  = 256
	streamSendTimeout = 2 * time.Second
)

// StreamAdder is the part of a redis client the stream sink needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamSink publishes every invocation to a redis stream from a single
// background goroutine. Records are dropped, with a warning, when the
// buffer is full.
type StreamSink struct {
	rdb    StreamAdder
	stream string
	maxLen int64
	logger *zap.Logger

	queue     chan router.Record
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewStreamSink(rdb StreamAdder, stream string, logger *zap.Logger) *StreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &StreamSink{
		rdb:     rdb,
		stream:  stream,
		maxLen:  10000,
		logger:  logger.Named("stream"),
		queue:   make(chan router.Record, streamBufferSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *StreamSink) Record(_ context.Context, rec router.Record) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- rec:
	default:
		s.logger.Warn("stream: buffer full, record dropped", zap.String("invocation_id", rec.InvocationID))
	}
}

// Close stops accepting records and waits for queued ones to be published.
func (s *StreamSink) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}

func (s *StreamSink) loop() {
	defer close(s.stopped)
	for {
		select {
		case rec := <-s.queue:
			s.publish(rec)
		case <-s.done:
			for {
				select {
				case rec := <-s.queue:
					s.publish(rec)
				default:
					return
				}
			}
		}
	}
}

func (s *StreamSink) publish(rec router.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), streamSendTimeout)
	defer cancel()

	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: payload(rec),
	}).Err()
	if err != nil {
		s.logger.Warn("stream: publish failed", zap.String("invocation_id", rec.InvocationID), zap.Error(err))
	}
}

func payload(rec router.Record) map[string]interface{} {
	values := map[string]interface{}{
		"invocation_id": rec.InvocationID,
		"source":        rec.Source,
		"user":          rec.User,
		"command":       rec.Command,
		"operation":     rec.Operation,
		"outcome":       rec.Outcome.Kind.String(),
		"duration_ms":   rec.Duration.Milliseconds(),
	}
	if rec.Outcome.Kind == router.KindSuccess {
		values["value"] = rec.Outcome.Value
	}
	return values
}
