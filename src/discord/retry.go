package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/finapp-discord/src/logging"
)

const (
	rateLimitAttempts = 3
	rateLimitBackoff  = time.Second
)

// withRateLimitRetry runs fn again while Discord answers with a rate limit,
// waiting the advertised delay when there is one.
func withRateLimitRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < rateLimitAttempts; attempt++ {
		if err = fn(); err == nil || !logging.IsRateLimit(err) {
			return err
		}

		wait := rateLimitBackoff
		var rateErr *discordgo.RateLimitError
		if errors.As(err, &rateErr) && rateErr.RateLimit != nil && rateErr.TooManyRequests != nil && rateErr.RetryAfter > 0 {
			wait = rateErr.RetryAfter
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}
