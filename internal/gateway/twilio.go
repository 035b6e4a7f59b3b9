package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"document-gpt/internal/config"
)

const defaultBaseURL = "https://api.twilio.com"

// Client sends outbound messages through a Twilio-compatible messaging
// gateway. Callers treat sends as fire-and-forget.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

type Config struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string // defaults to the Twilio API
	Timeout    time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// FromTwilioConfig builds a client from the loaded configuration.
func FromTwilioConfig(cfg *config.TwilioConfig) *Client {
	return NewClient(Config{
		AccountSID: cfg.AccountSID,
		AuthToken:  cfg.AuthToken,
		From:       cfg.From,
	})
}

// SendMessage delivers body to the recipient id (e.g.
// "whatsapp:+14155551234").
func (c *Client) SendMessage(ctx context.Context, to, body string) error {
	form := url.Values{
		"To":   {to},
		"From": {c.from},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway send failed: %s, %s", resp.Status, string(data))
	}
	return nil
}
