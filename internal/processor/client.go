package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fanvault/fanvault/internal/config"
	"go.uber.org/fx"
)

// Client fetches authoritative objects from the processor. Fetches are scoped
// to a connected account when accountID is non-empty.
type Client interface {
	GetSubscription(ctx context.Context, id string, accountID string) (*Subscription, error)
}

var ErrNotConfigured = errors.New("processor API key not configured")

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type restClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient builds the REST client from configuration.
func NewClient(cfg config.Config) Client {
	return &restClient{
		apiKey:  strings.TrimSpace(cfg.StripeAPIKey),
		baseURL: strings.TrimRight(cfg.StripeAPIBase, "/"),
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *restClient) GetSubscription(ctx context.Context, id string, accountID string) (*Subscription, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("subscription id is required")
	}

	query := url.Values{}
	query.Add("expand[]", "latest_invoice.lines")
	query.Add("expand[]", "items.data.price")

	endpoint := c.baseURL + "/v1/subscriptions/" + url.PathEscape(id) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if accountID = strings.TrimSpace(accountID); accountID != "" {
		req.Header.Set("Stripe-Account", accountID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("processor api %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("processor api %d", resp.StatusCode)
	}

	var sub Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	return &sub, nil
}

// Module provides the processor client.
var Module = fx.Module("processor",
	fx.Provide(NewClient),
)
