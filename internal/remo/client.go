// Package remo is a minimal client for the Nature Remo cloud API.
package remo

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

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrApplianceNotFound = errors.New("appliance not found")
)

// StatusError is returned when the API answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// Options tunes the client transport
type Options struct {
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	HTTPClient     *http.Client // Overrides Timeout when set
}

// Client talks to the cloud API with a bearer token
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new API client
func NewClient(baseURL, token string, opts Options) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}

	return &Client{
		baseURL:    u,
		token:      token,
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Devices returns all devices with their newest sensor events
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Appliances returns all appliances with their last known settings
func (c *Client) Appliances(ctx context.Context) ([]Appliance, error) {
	var appliances []Appliance
	if err := c.getJSON(ctx, "appliances", &appliances); err != nil {
		return nil, err
	}
	return appliances, nil
}

// UpdateAirconSettings posts a settings change for an aircon appliance.
// Only non-empty request fields are sent.
func (c *Client) UpdateAirconSettings(ctx context.Context, applianceID string, settings AirconSettingsRequest) error {
	form := settings.Form()

	path := fmt.Sprintf("appliances/%s/aircon_settings", url.PathEscape(applianceID))
	resp, err := c.request(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	log.Debug().
		Str("appliance", applianceID).
		Str("form", form.Encode()).
		Msg("Aircon settings updated")

	return nil
}

// Form encodes the request as form values
func (r AirconSettingsRequest) Form() url.Values {
	form := url.Values{}
	if r.Button != "" {
		form.Set("button", r.Button)
	}
	if r.OperationMode != "" {
		form.Set("operation_mode", r.OperationMode)
	}
	if r.Temperature != "" {
		form.Set("temperature", r.Temperature)
	}
	return form
}

// FindDevice returns the device with the given ID
func FindDevice(devices []Device, id string) (*Device, error) {
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// FindAppliance returns the appliance with the given ID
func FindAppliance(appliances []Appliance, id string) (*Appliance, error) {
	for i := range appliances {
		if appliances[i].ID == id {
			return &appliances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrApplianceNotFound, id)
}
