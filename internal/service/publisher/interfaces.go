package publisher

import (
	"context"
)

// Platform identifies a delivery channel.
type Platform string

const (
	PlatformVK       Platform = "vk"
	PlatformTelegram Platform = "telegram"
)

// SessionScoped reports whether the platform authenticates with one shared
// session per owner instead of one token per destination.
func (p Platform) SessionScoped() bool {
	return p == PlatformTelegram
}

// Destination is one (platform, channel/group identifier) pair a post is sent to.
type Destination struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
}

// Post is the content handed to the dispatcher. Immutable once submitted.
type Post struct {
	Text         string        `json:"text"`
	Attachments  []string      `json:"attachments,omitempty"`
	Destinations []Destination `json:"destinations"`
}

// Outcome is the result of one delivery attempt. Exactly one outcome exists
// per requested destination; outcomes are never merged or dropped.
type Outcome struct {
	Platform      Platform `json:"platform"`
	DestinationID string   `json:"destination_id"`
	Success       bool     `json:"success"`
	RemotePostID  string   `json:"remote_post_id,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Adapter is the per-platform delivery strategy. Implementations must not
// panic across this boundary; a failed delivery is reported through the
// returned outcome, not an error.
type Adapter interface {
	PlatformName() Platform

	// Send delivers text plus attachments (local file paths) to one
	// destination using the given opaque credential. It blocks until the
	// underlying network exchange completes.
	Send(ctx context.Context, credential, destinationID, text string, attachments []string) Outcome
}

// Failure builds a failed outcome for a destination.
func Failure(platform Platform, destinationID, errMsg string) Outcome {
	return Outcome{
		Platform:      platform,
		DestinationID: destinationID,
		Success:       false,
		Error:         errMsg,
	}
}

// Success builds a successful outcome carrying the remote post id.
func Success(platform Platform, destinationID, remotePostID string) Outcome {
	return Outcome{
		Platform:      platform,
		DestinationID: destinationID,
		Success:       true,
		RemotePostID:  remotePostID,
	}
}
