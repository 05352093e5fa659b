package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	domain "github.com/snkrtools/snkr-price-watch/pkg/types"
)

const defaultChatworkBaseURL = "https://api.chatwork.com/v2"

// Chatwork implements Channel via the Chatwork room messages API.
type Chatwork struct {
	token   string
	roomID  string
	baseURL string
	client  *http.Client
}

// ChatworkOption configures a Chatwork channel.
type ChatworkOption func(*Chatwork)

// WithChatworkBaseURL overrides the API base URL.
func WithChatworkBaseURL(u string) ChatworkOption {
	return func(c *Chatwork) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithChatworkHTTPClient sets a custom HTTP client.
func WithChatworkHTTPClient(hc *http.Client) ChatworkOption {
	return func(c *Chatwork) {
		c.client = hc
	}
}

// NewChatwork creates a Chatwork room channel.
func NewChatwork(token, roomID string, opts ...ChatworkOption) *Chatwork {
	c := &Chatwork{
		token:   token,
		roomID:  roomID,
		baseURL: defaultChatworkBaseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Channel.
func (c *Chatwork) Name() string { return domain.ChannelChatwork }

// Configured implements Channel.
func (c *Chatwork) Configured() bool { return c.token != "" && c.roomID != "" }

// Send implements Channel.
func (c *Chatwork) Send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("body", text)

	endpoint := fmt.Sprintf("%s/rooms/%s/messages", c.baseURL, c.roomID)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("creating chatwork request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-ChatWorkToken", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending chatwork message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("chatwork returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("chatwork returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
