package remo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Nature Remo cloud API endpoint.
const DefaultBaseURL = "https://api.nature.global"

type Fetcher interface {
	Fetch(ctx context.Context) ([]*DeviceRecord, error)
}

type Client struct {
	client  *http.Client
	limit   *rate.Limiter
	log     *zap.Logger
	baseURL string
	token   string
}

type Option func(c *Client) error

// NewFetcher returns a client for the Remo cloud API. The default limiter
// keeps below the API quota of 30 requests per 5 minutes.
func NewFetcher(opts ...Option) (*Client, error) {
	c := &Client{
		log:     zap.L(),
		limit:   rate.NewLimiter(rate.Every(10*time.Second), 3),
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL: DefaultBaseURL,
	}

	// apply the options
	for _, o := range opts {
		err := o(c)
		if err != nil {
			return nil, err
		}
	}

	if c.token == "" {
		return nil, fmt.Errorf("remo: access token is required")
	}

	return c, nil
}

func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

func WithBaseURL(u string) Option {
	return func(c *Client) error {
		if u == "" {
			return fmt.Errorf("remo: empty base url")
		}
		c.baseURL = u
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) error {
		c.client = h
		return nil
	}
}

func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) error {
		c.limit = l
		return nil
	}
}

func (c *Client) fetchDevices(ctx context.Context) ([]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c.log.Debug("fetching devices", zap.String("baseURL", c.baseURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/1/devices", nil)
	if err != nil {
		c.log.Error("cannot create request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	// apply the ratelimit
	err = c.limit.Wait(ctx)
	if err != nil {
		c.log.Error("cannot await rate limit", zap.Error(err))
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error("error fetching devices", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("unexpected api response", zap.Int("status", resp.StatusCode))
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var data []json.RawMessage
	err = json.NewDecoder(resp.Body).Decode(&data)
	if err != nil {
		c.log.Error("error decoding devices", zap.Error(err))
		return nil, fmt.Errorf("remo: decode devices: %w", err)
	}

	return data, nil
}

// Fetch returns every device of the account. Devices that fail schema
// validation are logged and left out.
func (c *Client) Fetch(ctx context.Context) (r []*DeviceRecord, err error) {
	raw, err := c.fetchDevices(ctx)
	if err != nil {
		return nil, err
	}

	for i, data := range raw {
		device, err := ParseDeviceRecord(data)
		if err != nil {
			c.log.Error("invalid device record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		r = append(r, device)
	}

	return r, nil
}
