package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ipsend/internal/config"
	"ipsend/internal/types"
	"ipsend/internal/version"
)

const (
	// DefaultMailerSendURL is the MailerSend email endpoint
	DefaultMailerSendURL = "https://api.mailersend.com/v1/email"

	// DefaultTimeout bounds a single send
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 512
)

// MailerSendNotifier represents MailerSend email notifier
type MailerSendNotifier struct {
	url    string
	creds  config.Credentials
	client *http.Client
}

type emailAddress struct {
	Email string `json:"email"`
}

// mailerSendPayload is the body of POST /v1/email
type mailerSendPayload struct {
	From    emailAddress   `json:"from"`
	To      []emailAddress `json:"to"`
	Subject string         `json:"subject"`
	Text    string         `json:"text"`
}

// NewMailerSendNotifier creates new MailerSend notifier. Zero url and
// timeout fall back to the defaults.
func NewMailerSendNotifier(creds config.Credentials, url string, timeout time.Duration) *MailerSendNotifier {
	if url == "" {
		url = DefaultMailerSendURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &MailerSendNotifier{
		url:   url,
		creds: creds,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: timeout,
			},
		},
	}
}

// Recipient returns the address notifications are sent to
func (n *MailerSendNotifier) Recipient() string {
	return n.creds.ToEmail
}

// Send posts msg to the provider. A 2xx response is success; delivery
// itself is the provider's concern. Failures wrap types.ErrNotify.
func (n *MailerSendNotifier) Send(ctx context.Context, msg Message) error {
	payload := mailerSendPayload{
		From:    emailAddress{Email: n.creds.FromEmail},
		To:      []emailAddress{{Email: n.creds.ToEmail}},
		Subject: msg.Subject,
		Text:    msg.Body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal payload: %v", types.ErrNotify, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", types.ErrNotify, err)
	}

	req.Header.Set("Authorization", "Bearer "+n.creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to send email via MailerSend: %v", types.ErrNotify, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: MailerSend returned status %d: %s",
			types.ErrNotify, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
