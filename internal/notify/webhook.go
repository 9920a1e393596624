package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v5"

	"github.com/rolandmarg/birthday-bot/internal/config"
)

// WebhookChannel posts messages to a group-chat webhook endpoint.
// Transient failures (network, 5xx) are retried with exponential backoff;
// client errors are treated as permanent and fail the send immediately.
type WebhookChannel struct {
	URL    string
	Token  string
	Client *http.Client
}

// NewWebhookChannel creates a channel for the given endpoint. An empty
// token is legal for token-less webhooks.
func NewWebhookChannel(url, token string) *WebhookChannel {
	return &WebhookChannel{
		URL:   url,
		Token: token,
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
	}
}

// webhookPayload is the wire format of one message.
type webhookPayload struct {
	Text      string `json:"text"`
	Recipient string `json:"recipient,omitempty"`
}

// webhookResponse carries the optional message id assigned by the endpoint.
type webhookResponse struct {
	ID string `json:"id"`
}

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, message, recipient string) SendResult {
	body, err := json.Marshal(webhookPayload{Text: message, Recipient: recipient})
	if err != nil {
		return SendResult{Recipient: recipient, Kind: ErrKindSendFailed, Err: err}
	}

	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set(config.HeaderContentType, config.MimeJSON)
		req.Header.Set(config.HeaderUserAgent, config.UserAgent)
		if c.Token != "" {
			req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+c.Token)
		}

		resp, err := c.Client.Do(req)
		if err != nil {
			return "", err
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var wr webhookResponse
			// The id is optional; an unparseable body is still a success.
			_ = json.NewDecoder(resp.Body).Decode(&wr)
			return wr.ID, nil
		case resp.StatusCode >= 500:
			return "", fmt.Errorf("%s: %d", config.ErrWebhookStatus, resp.StatusCode)
		default:
			return "", backoff.Permanent(fmt.Errorf("%s: %d", config.ErrWebhookStatus, resp.StatusCode))
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = config.WebhookRetryInitial

	id, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(config.WebhookRetryMaxTries),
	)
	if err != nil {
		return SendResult{Recipient: recipient, Kind: ErrKindSendFailed, Err: err}
	}
	return SendResult{Success: true, Recipient: recipient, MessageID: id}
}

// Available implements Channel.
func (c *WebhookChannel) Available() bool {
	return c.URL != ""
}

// Metadata implements Channel.
func (c *WebhookChannel) Metadata() Metadata {
	return Metadata{
		Name:         config.ChannelKindWebhook,
		Capabilities: []string{"text", "recipients"},
	}
}
