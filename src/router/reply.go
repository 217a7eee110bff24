package router

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// ReplyUnavailable is shown when a capability could not be constructed.
	ReplyUnavailable = "⏳ Finapp data is temporarily unavailable. Please try again in a moment."
	// ReplyFailed is shown when the backend operation itself failed.
	ReplyFailed = "😓 Sorry, something went wrong while fetching that. Please try again later."

	maxEchoedNameLen = 32
)

var (
	namePolicy = bluemonday.StrictPolicy()
	// Names are quoted inside a code span, so only characters that could
	// close it or break the line need replacing.
	codeSpanEscaper = strings.NewReplacer("`", "'", "\r", " ", "\n", " ")
)

// RenderReply turns an outcome into the single user-visible reply. reg is
// the zero Registration when the command was not found. Failure causes are
// never rendered.
func RenderReply(reg Registration, o Outcome) string {
	switch o.Kind {
	case KindSuccess:
		return renderSuccess(reg, o)
	case KindUnknownCommand:
		return fmt.Sprintf("⚠️ Unknown command `%s`.", echoName(o.Command))
	case KindUnsupportedOperation:
		command := echoName(o.Command)
		hint := ""
		if names := reg.OperationNames(); len(names) > 0 {
			hint = fmt.Sprintf(" Try: %s.", strings.Join(names, ", "))
		}
		if o.Operation == "" {
			return fmt.Sprintf("⚠️ Missing %s subcommand.%s", command, hint)
		}
		return fmt.Sprintf("⚠️ Unknown %s subcommand `%s`.%s", command, echoName(o.Operation), hint)
	case KindResolutionFailure:
		return ReplyUnavailable
	default:
		return ReplyFailed
	}
}

func renderSuccess(reg Registration, o Outcome) string {
	label := reg.Label
	if label == "" {
		label = echoName(o.Command)
	}
	prefix := ""
	if reg.Emoji != "" {
		prefix = reg.Emoji + " "
	}

	spec, _ := reg.Operation(o.Operation)
	if spec.Unit == UnitCents {
		return fmt.Sprintf("%sThe %s in the Finapp database add up to **%s**.", prefix, label, FormatCents(o.Value))
	}
	return fmt.Sprintf("%sThere are currently **%d** %s in the Finapp database!", prefix, o.Value, label)
}

// FormatCents renders an amount in cents as a dollar figure with thousands
// separators, e.g. 123456 -> "$1,234.56".
func FormatCents(cents int64) string {
	sign := ""
	u := uint64(cents)
	if cents < 0 {
		sign = "-"
		u = uint64(-(cents + 1)) + 1
	}
	dollars := fmt.Sprintf("%d", u/100)
	var b strings.Builder
	for i, r := range dollars {
		if i > 0 && (len(dollars)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), u%100)
}

// echoName makes user-supplied text safe to quote back into a chat reply.
// Markup tags are stripped; everything else is kept as typed.
func echoName(name string) string {
	clean := strings.TrimSpace(codeSpanEscaper.Replace(html.UnescapeString(namePolicy.Sanitize(name))))
	if utf8.RuneCountInString(clean) > maxEchoedNameLen {
		runes := []rune(clean)
		clean = string(runes[:maxEchoedNameLen]) + "…"
	}
	if clean == "" {
		return "(empty)"
	}
	return clean
}
