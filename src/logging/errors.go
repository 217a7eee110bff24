package logging

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// IsRateLimit reports whether err came from a 429 / rate limited response,
// either as a Discord REST error or as a wrapped message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusTooManyRequests {
		return true
	}
	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "429")
}
