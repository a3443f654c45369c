package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultBarkBase is the public Bark push server.
const defaultBarkBase = "https://api.day.app"

// BarkNotifier pushes to an iOS device through a Bark server.
type BarkNotifier struct {
	BaseURL   string
	DeviceKey string
	Client    *http.Client
}

var _ Notifier = (*BarkNotifier)(nil)

// NewBarkNotifier creates a Bark notifier with optional proxy support. An
// empty baseURL selects the public server.
func NewBarkNotifier(baseURL, deviceKey, proxyURL string) *BarkNotifier {
	if baseURL == "" {
		baseURL = defaultBarkBase
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BarkNotifier{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		DeviceKey: deviceKey,
		Client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

func (b *BarkNotifier) Name() string { return "bark" }

// Send pushes title and body through the Bark GET endpoint
// ({base}/{key}/{title}/{body}).
func (b *BarkNotifier) Send(ctx context.Context, msg Message) error {
	u := fmt.Sprintf("%s/%s/%s/%s",
		b.BaseURL,
		url.PathEscape(b.DeviceKey),
		url.PathEscape(msg.Title),
		url.PathEscape(msg.Body),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("bark send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bark API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
