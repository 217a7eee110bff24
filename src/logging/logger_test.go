package logging

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		level   zapcore.Level
		wantErr bool
	}{
		{"defaults", Config{}, zapcore.InfoLevel, false},
		{"debug console", Config{Level: "debug", Format: "console"}, zapcore.DebugLevel, false},
		{"upper case", Config{Level: "WARN", Format: "JSON"}, zapcore.WarnLevel, false},
		{"bad level", Config{Level: "loud"}, 0, true},
		{"bad format", Config{Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("unknown interaction"), false},
		{"status text", errors.New("HTTP 429 Too Many Requests"), true},
		{"wrapped rest 429", fmt.Errorf("followup: %w", &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusTooManyRequests},
		}), true},
		{"rest 404", &discordgo.RESTError{
			Response:     &http.Response{StatusCode: http.StatusNotFound},
			ResponseBody: []byte(`{"message":"Unknown Webhook"}`),
		}, false},
		{"rate limit error", &discordgo.RateLimitError{RateLimit: &discordgo.RateLimit{TooManyRequests: &discordgo.TooManyRequests{}, URL: "/x"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimit(tt.err))
		})
	}
}
