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

const defaultLinePushURL = "https://api.line.me/v2/bot/message/push"

// Line implements Channel via the LINE Messaging API push endpoint.
type Line struct {
	token   string
	userID  string
	pushURL string
	client  *http.Client
}

// LineOption configures a LINE channel.
type LineOption func(*Line)

// WithLinePushURL overrides the push endpoint.
func WithLinePushURL(u string) LineOption {
	return func(l *Line) {
		l.pushURL = u
	}
}

// WithLineHTTPClient sets a custom HTTP client.
func WithLineHTTPClient(c *http.Client) LineOption {
	return func(l *Line) {
		l.client = c
	}
}

// NewLine creates a LINE push channel.
func NewLine(token, userID string, opts ...LineOption) *Line {
	l := &Line{
		token:   token,
		userID:  userID,
		pushURL: defaultLinePushURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name implements Channel.
func (l *Line) Name() string { return domain.ChannelLine }

// Configured implements Channel.
func (l *Line) Configured() bool { return l.token != "" && l.userID != "" }

type linePushPayload struct {
	To       string        `json:"to"`
	Messages []lineMessage `json:"messages"`
}

type lineMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send implements Channel.
func (l *Line) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(linePushPayload{
		To:       l.userID,
		Messages: []lineMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("marshaling line payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		l.pushURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating line request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending line push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("line returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("line returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
