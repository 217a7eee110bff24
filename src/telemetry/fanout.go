package telemetry

import (
	"context"

	"github.com/stake-plus/finapp-discord/src/router"
)

// Fanout forwards every record to each sink in order. Nil sinks are skipped.
type Fanout []router.Sink

func (f Fanout) Record(ctx context.Context, rec router.Record) {
	for _, s := range f {
		if s != nil {
			s.Record(ctx, rec)
		}
	}
}
