package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a normalized send destination: either a public @username or a
// numeric chat id.
type Target struct {
	Username string
	ChatID   int64
}

// Recipient returns the Bot API chat_id form of the target.
func (t Target) Recipient() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ChatID, 10)
}

// NormalizeDestination maps the stored channel identifier onto a sendable
// target:
//
//	@name        -> used verbatim as a username
//	-100<digits> -> already-qualified channel id, parsed as is
//	-<digits>    -> parsed as is
//	<digits>     -> -100 prefix added; if that does not parse, the raw
//	                string is used as a last resort
func NormalizeDestination(channelID string) (Target, error) {
	switch {
	case strings.HasPrefix(channelID, "@"):
		return Target{Username: channelID}, nil
	case strings.HasPrefix(channelID, "-"):
		id, err := strconv.ParseInt(channelID, 10, 64)
		if err != nil {
			return Target{}, fmt.Errorf("invalid channel id %q", channelID)
		}
		return Target{ChatID: id}, nil
	default:
		id, err := strconv.ParseInt("-100"+channelID, 10, 64)
		if err != nil {
			return Target{Username: channelID}, nil
		}
		return Target{ChatID: id}, nil
	}
}
