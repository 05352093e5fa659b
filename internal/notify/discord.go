package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

// discordUsername is the sender name shown in the channel.
const discordUsername = "スニダン価格監視"

// Discord implements Channel via a Discord webhook.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// DiscordOption configures a Discord channel.
type DiscordOption func(*Discord)

// WithDiscordHTTPClient sets a custom HTTP client.
func WithDiscordHTTPClient(c *http.Client) DiscordOption {
	return func(d *Discord) {
		d.client = c
	}
}

// NewDiscord creates a Discord webhook channel.
func NewDiscord(webhookURL string, opts ...DiscordOption) *Discord {
	d := &Discord{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements Channel.
func (d *Discord) Name() string { return domain.ChannelDiscord }

// Configured implements Channel.
func (d *Discord) Configured() bool { return d.webhookURL != "" }

type discordPayload struct {
	Content  string `json:"content"`
	Username string `json:"username"`
}

// Send implements Channel. Discord answers a successful webhook execution
// with 204 No Content.
func (d *Discord) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(discordPayload{
		Content:  text,
		Username: discordUsername,
	})
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
