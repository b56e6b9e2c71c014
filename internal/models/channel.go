// ABOUTME: Channel and Role enumerate where a message came from and who said it
// ABOUTME: Parsing is strict so adapters cannot smuggle unknown channels into the pipeline
package models

import (
	"fmt"
	"strings"
)

// Channel identifies the inbound surface of a conversation
type Channel string

const (
	ChannelWeb   Channel = "web"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// ParseChannel normalizes and validates a channel name. Empty input means web.
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ChannelWeb, nil
	case ChannelWeb, ChannelSMS, ChannelVoice:
		return c, nil
	default:
		return "", fmt.Errorf("unknown channel %q", s)
	}
}

// Role is the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)
