// Package device talks to the heat controller's HTTP API.
package device

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

	"heat_controller/internal/logger"
	"heat_controller/internal/models"
)

var (
	// ErrConnectivity wraps every transport failure: network errors, timeouts and non-2xx replies.
	ErrConnectivity = errors.New("device unreachable")
	// ErrMalformed means the device answered but the payload could not be decoded.
	ErrMalformed = errors.New("malformed device response")
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Endpoint names reported to the Observer.
const (
	EndpointOverview   = "overview"
	EndpointSetConfig  = "set_config"
	EndpointSetSensors = "set_sensors"
	EndpointSnapshot   = "snapshot"
	EndpointPending    = "pending"
	EndpointFetchChunk = "fetch_chunk"
	EndpointDelete     = "delete_chunk"
)

// Observer receives one call per device request.
type Observer interface {
	ObserveDeviceRequest(endpoint string, took time.Duration, err error)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
}

type Client struct {
	base     *url.URL
	http     *http.Client
	observer Observer
	log      *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("device base url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse device base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:     base,
		http:     hc,
		observer: cfg.Observer,
		log:      logger.OrNop(log).Named("device"),
	}, nil
}

// Overview fetches config, sensors, chunk index and filesystem stats.
func (c *Client) Overview(ctx context.Context) (models.DeviceOverview, error) {
	body, err := c.get(ctx, EndpointOverview, "/conf", nil)
	if err != nil {
		return models.DeviceOverview{}, err
	}
	return decodeOverview(body)
}

// SetConfig pushes thresholds and timers; the device replies with its updated overview.
func (c *Client) SetConfig(ctx context.Context, cfg models.DeviceConfig) (models.DeviceOverview, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return models.DeviceOverview{}, err
	}
	body, err := c.get(ctx, EndpointSetConfig, "/conf", url.Values{"set": {string(b)}})
	if err != nil {
		return models.DeviceOverview{}, err
	}
	return decodeOverview(body)
}

// SetSensors pushes per-sensor weights.
func (c *Client) SetSensors(ctx context.Context, sensors []models.SensorWeight) (models.DeviceOverview, error) {
	body, err := c.get(ctx, EndpointSetSensors, "/conf", url.Values{"sn": {EncodeSensors(sensors)}})
	if err != nil {
		return models.DeviceOverview{}, err
	}
	return decodeOverview(body)
}

// Snapshot reads the current sensor state. force asks the device to rescan first.
func (c *Client) Snapshot(ctx context.Context, force bool) (models.Snapshot, error) {
	q := url.Values{"cur": {"1"}}
	if force {
		q.Set("f", "1")
	}
	body, err := c.get(ctx, EndpointSnapshot, "/info", q)
	if err != nil {
		return models.Snapshot{}, err
	}
	return decodeSnapshot(body)
}

// Pending returns rows still buffered in device memory and not yet flushed to a chunk.
func (c *Client) Pending(ctx context.Context) ([]models.LogLine, error) {
	body, err := c.get(ctx, EndpointPending, "/info", url.Values{"last": {"1"}})
	if err != nil {
		return nil, err
	}
	return decodePending(body)
}

// FetchChunk returns the raw text of one chunk. The text is often not valid JSON.
func (c *Client) FetchChunk(ctx context.Context, name string) (string, error) {
	body, err := c.get(ctx, EndpointFetchChunk, "/data", url.Values{"f": {name}})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// DeleteChunk removes a chunk. It reports false when the device had no such file.
func (c *Client) DeleteChunk(ctx context.Context, name string) (bool, error) {
	body, err := c.get(ctx, EndpointDelete, "/data", url.Values{"d": {name}})
	if err != nil {
		return false, err
	}
	var resp struct {
		D flexBool `json:"d"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("%w: delete reply: %v", ErrMalformed, err)
	}
	return bool(resp.D), nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveDeviceRequest(endpoint, time.Since(start), err)
		}
	}()

	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugw("device_request_failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectivity, endpoint, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrConnectivity, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrConnectivity, endpoint, resp.StatusCode)
	}
	return body, nil
}
