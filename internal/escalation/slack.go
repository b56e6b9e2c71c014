// ABOUTME: Slack notifier posting escalations with chat.postMessage
// ABOUTME: The bot token is sent as a bearer header; Slack's ok=false is treated as an error
package escalation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/frontdesk/internal/util"
)

// SlackNotifier posts to one channel. Transport failures and 5xx/429 responses are retried.
type SlackNotifier struct {
	Token      string
	Channel    string
	BaseURL    string
	HTTP       *http.Client
	MaxRetries int
	RetryDelay time.Duration
}

// NewSlackNotifier returns nil unless both token and channel are set
func NewSlackNotifier(token, channel string) *SlackNotifier {
	if token == "" || channel == "" {
		return nil
	}
	return &SlackNotifier{
		Token:   token,
		Channel: channel,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Notify posts the subject as a bold line followed by the body
func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}
	client := s.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	body, err := json.Marshal(map[string]any{
		"channel": s.Channel,
		"text":    fmt.Sprintf("*%s*\n%s", msg.Subject, msg.Body),
	})
	if err != nil {
		return err
	}

	// API-level rejections are final; only the transport is retried
	var apiErr error
	err = util.Retry(ctx, s.MaxRetries, s.RetryDelay, func(ctx context.Context) error {
		apiErr = nil
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat.postMessage", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
		req.Header.Set("Content-Type", "application/json; charset=utf-8")

		res, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("slack post: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("slack post: status %d", res.StatusCode)
		}

		var resp struct {
			OK    bool   `json:"ok"`
			Error string `json:"error,omitempty"`
		}
		if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
			apiErr = fmt.Errorf("slack response: %w", err)
			return nil
		}
		if !resp.OK {
			if resp.Error == "" {
				resp.Error = "slack api error"
			}
			apiErr = fmt.Errorf("slack: %s", resp.Error)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return apiErr
}
