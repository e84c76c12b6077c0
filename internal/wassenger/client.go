// Package wassenger is the WhatsApp messaging gateway backed by the
// Wassenger REST API.
package wassenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the production Wassenger endpoint.
	DefaultAPIURL = "https://api.wassenger.com/v1"
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// maxMediaBytes caps inbound media downloads.
	maxMediaBytes = 64 << 20
)

// Config holds Wassenger credentials.
type Config struct {
	APIURL   string
	APIKey   string
	DeviceID string
	Timeout  time.Duration
}

// Client sends and fetches WhatsApp content through Wassenger.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	backoff    time.Duration // base wait when no Retry-After is given
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("wassenger: api key is required")
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		backoff:    time.Second,
	}, nil
}

type mediaRef struct {
	URL string `json:"url"`
}

type messageRequest struct {
	Phone   string    `json:"phone"`
	Message string    `json:"message,omitempty"`
	Media   *mediaRef `json:"media,omitempty"`
	Caption string    `json:"caption,omitempty"`
	Device  string    `json:"device,omitempty"`
}

type messageResponse struct {
	ID string `json:"id"`
}

// statusError is a non-2xx response from Wassenger.
type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// SendText sends a text message to phone.
func (c *Client) SendText(ctx context.Context, phone, message string) error {
	id, err := c.postMessage(ctx, messageRequest{Phone: phone, Message: message, Device: c.cfg.DeviceID})
	if err != nil {
		return fmt.Errorf("wassenger: send text to %s: %w", phone, err)
	}
	c.logger.Debug("message sent", "phone", phone, "message_id", id)
	return nil
}

// SendMedia sends the media at url to phone with an optional caption.
func (c *Client) SendMedia(ctx context.Context, phone, url, caption string) error {
	id, err := c.postMessage(ctx, messageRequest{
		Phone:   phone,
		Media:   &mediaRef{URL: url},
		Caption: caption,
		Device:  c.cfg.DeviceID,
	})
	if err != nil {
		return fmt.Errorf("wassenger: send media to %s: %w", phone, err)
	}
	c.logger.Debug("media message sent", "phone", phone, "message_id", id)
	return nil
}

func (c *Client) postMessage(ctx context.Context, body messageRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	var out messageResponse
	err = c.retryOnRateLimit(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			strings.TrimRight(c.cfg.APIURL, "/")+"/messages", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Token", c.cfg.APIKey)

		respBody, err := c.do(req, 1<<20)
		if err != nil {
			return err
		}
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, &out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	})
	return out.ID, err
}

// FetchBytes downloads inbound media. The API token is sent because
// Wassenger-hosted media URLs require it.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.retryOnRateLimit(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Token", c.cfg.APIKey)
		data, err = c.do(req, maxMediaBytes)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("wassenger: fetch media: %w", err)
	}
	return data, nil
}

func (c *Client) do(req *http.Request, limit int64) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		se := &statusError{code: res.StatusCode, body: strings.TrimSpace(string(body))}
		if secs, err := strconv.Atoi(res.Header.Get("Retry-After")); err == nil && secs > 0 {
			se.retryAfter = time.Duration(secs) * time.Second
		}
		c.logger.Error("wassenger request failed", "method", req.Method, "status", res.StatusCode, "body", se.body)
		return nil, se
	}
	return body, nil
}

// retryOnRateLimit retries fn while Wassenger answers 429, honouring
// Retry-After and otherwise backing off exponentially.
func (c *Client) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := se.retryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}
