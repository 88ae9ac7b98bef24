package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bft-labs/skyship/internal/domain"
	"github.com/bft-labs/skyship/internal/ports"
	"github.com/bft-labs/skyship/pkg/log"
)

// DefaultTwilioBaseURL is the production Twilio REST endpoint.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig holds the account used to send messages.
type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string

	// Rate is the maximum number of messages sent per second. Zero means unlimited.
	Rate float64
}

// TwilioNotifier implements ports.Notifier by sending the post text as an SMS.
type TwilioNotifier struct {
	config  TwilioConfig
	client  ports.HTTPClient
	limiter *rate.Limiter
	logger  log.Logger
}

// NewTwilioNotifier creates a Twilio SMS notifier.
func NewTwilioNotifier(config TwilioConfig, client ports.HTTPClient, logger log.Logger) *TwilioNotifier {
	if config.BaseURL == "" {
		config.BaseURL = DefaultTwilioBaseURL
	}
	limit := rate.Inf
	if config.Rate > 0 {
		limit = rate.Limit(config.Rate)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &TwilioNotifier{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Notify sends post's text to destination.
func (n *TwilioNotifier) Notify(ctx context.Context, destination string, post domain.Post) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	form := url.Values{}
	form.Set("To", destination)
	form.Set("From", n.config.From)
	form.Set("Body", post.Record.Text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(n.config.BaseURL, "/"), url.PathEscape(n.config.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(n.config.AccountSID, n.config.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Debug("sms sent",
		log.String("to", destination),
		log.String("uri", post.URI()),
	)
	return nil
}
