// Package notify defines the notification channel interface, the channel
// implementations, and the dispatcher that fans a message out to them.
package notify

import (
	"context"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// Channel defines the interface for a single notification delivery channel.
type Channel interface {
	// Name returns the stable channel identifier recorded in
	// notification history.
	Name() string

	// Configured reports whether the channel has everything it needs
	// to deliver. Unconfigured channels are skipped, not errored.
	Configured() bool

	// Send delivers a plain-text message.
	Send(ctx context.Context, text string) error
}

// FromSettings builds the enabled channels out of stored settings.
// Disabled channels are not constructed at all; enabled-but-incomplete
// ones are constructed and report Configured() == false.
func FromSettings(set *domain.ChannelSettings, opts ...ChannelOption) []Channel {
	co := channelOptions{}
	for _, opt := range opts {
		opt(&co)
	}

	var channels []Channel
	if set.LineEnabled {
		channels = append(channels, NewLine(set.LineToken, set.LineUserID, co.line...))
	}
	if set.DiscordEnabled {
		channels = append(channels, NewDiscord(set.DiscordWebhook, co.discord...))
	}
	if set.ChatworkEnabled {
		channels = append(channels, NewChatwork(set.ChatworkToken, set.ChatworkRoomID, co.chatwork...))
	}
	return channels
}

type channelOptions struct {
	line     []LineOption
	discord  []DiscordOption
	chatwork []ChatworkOption
}

// ChannelOption configures channel construction in FromSettings.
type ChannelOption func(*channelOptions)

// WithLineOptions forwards options to the LINE channel.
func WithLineOptions(opts ...LineOption) ChannelOption {
	return func(co *channelOptions) {
		co.line = append(co.line, opts...)
	}
}

// WithDiscordOptions forwards options to the Discord channel.
func WithDiscordOptions(opts ...DiscordOption) ChannelOption {
	return func(co *channelOptions) {
		co.discord = append(co.discord, opts...)
	}
}

// WithChatworkOptions forwards options to the Chatwork channel.
func WithChatworkOptions(opts ...ChatworkOption) ChannelOption {
	return func(co *channelOptions) {
		co.chatwork = append(co.chatwork, opts...)
	}
}
