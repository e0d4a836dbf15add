package voiceadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the production Voice Admin API.
	DefaultBaseURL = "https://api.goto.com/voice-admin/v1"

	// DefaultPageSize is used when PageOptions.PageSize is zero.
	DefaultPageSize = 50

	maxErrorBodySize = 4 << 10
)

// Client calls the Voice Admin REST API on behalf of a user. It holds no
// credentials; every call is given the access token to use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
}

// NewClient returns a Client for baseURL with a 10 second timeout.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		PageSize:   DefaultPageSize,
	}
}

// ============================================================================
// Accounts
// ============================================================================

func (c *Client) GetAccount(ctx context.Context, token, accountKey string) (*Account, error) {
	var out Account
	if err := c.get(ctx, token, "/accounts/"+url.PathEscape(accountKey), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Locations
// ============================================================================

func (c *Client) ListLocations(ctx context.Context, token, accountKey string, opts PageOptions) (*Page[Location], error) {
	var out Page[Location]
	if err := c.get(ctx, token, "/locations", c.pageQuery(accountKey, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLocationDevices(ctx context.Context, token, locationID string, opts PageOptions) (*Page[Device], error) {
	var out Page[Device]
	path := "/locations/" + url.PathEscape(locationID) + "/devices"
	if err := c.get(ctx, token, path, c.pageQuery("", opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListLocationUsers(ctx context.Context, token, locationID string, opts PageOptions) (*Page[User], error) {
	var out Page[User]
	path := "/locations/" + url.PathEscape(locationID) + "/users"
	if err := c.get(ctx, token, path, c.pageQuery("", opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Devices
// ============================================================================

func (c *Client) ListDevices(ctx context.Context, token, accountKey string, opts PageOptions) (*Page[Device], error) {
	var out Page[Device]
	if err := c.get(ctx, token, "/devices", c.pageQuery(accountKey, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDevice(ctx context.Context, token, deviceID string) (*Device, error) {
	var out Device
	if err := c.get(ctx, token, "/devices/"+url.PathEscape(deviceID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDeviceButtonConfiguration(ctx context.Context, token, deviceID string) (*ButtonConfiguration, error) {
	var out ButtonConfiguration
	path := "/devices/" + url.PathEscape(deviceID) + "/buttons-configuration"
	if err := c.get(ctx, token, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RebootDevice asks the platform to reboot a device.
func (c *Client) RebootDevice(ctx context.Context, token, deviceID string) error {
	return c.do(ctx, token, http.MethodPost, "/devices/"+url.PathEscape(deviceID)+"/reboot", nil, nil)
}

// ResyncDevice asks the platform to push the current configuration to a device.
func (c *Client) ResyncDevice(ctx context.Context, token, deviceID string) error {
	return c.do(ctx, token, http.MethodPost, "/devices/"+url.PathEscape(deviceID)+"/resync", nil, nil)
}

func (c *Client) ListDeviceModels(ctx context.Context, token string, opts PageOptions) (*Page[DeviceModel], error) {
	var out Page[DeviceModel]
	if err := c.get(ctx, token, "/device-models", c.pageQuery("", opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Extensions and phone numbers
// ============================================================================

func (c *Client) ListExtensions(ctx context.Context, token, accountKey string, opts PageOptions) (*Page[Extension], error) {
	var out Page[Extension]
	if err := c.get(ctx, token, "/extensions", c.pageQuery(accountKey, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetExtension(ctx context.Context, token, extensionID string) (*Extension, error) {
	var out Extension
	if err := c.get(ctx, token, "/extensions/"+url.PathEscape(extensionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPhoneNumbers(ctx context.Context, token, accountKey string, opts PageOptions) (*Page[PhoneNumber], error) {
	var out Page[PhoneNumber]
	if err := c.get(ctx, token, "/phone-numbers", c.pageQuery(accountKey, opts), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPhoneNumber(ctx context.Context, token, phoneNumberID string) (*PhoneNumber, error) {
	var out PhoneNumber
	if err := c.get(ctx, token, "/phone-numbers/"+url.PathEscape(phoneNumberID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Request helpers
// ============================================================================

func (c *Client) pageQuery(accountKey string, opts PageOptions) url.Values {
	q := url.Values{}
	if accountKey != "" {
		q.Set("accountKey", accountKey)
	}

	size := opts.PageSize
	if size <= 0 {
		size = c.PageSize
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	q.Set("pageSize", strconv.Itoa(size))

	if opts.PageMarker != "" {
		q.Set("pageMarker", opts.PageMarker)
	}
	return q
}

func (c *Client) get(ctx context.Context, token, path string, query url.Values, out any) error {
	return c.do(ctx, token, http.MethodGet, path, query, out)
}

// authClient wraps the configured HTTP client with a transport that sets the
// bearer token on every request.
func (c *Client) authClient(token string) *http.Client {
	base := c.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, out any) error {
	if token == "" {
		return ErrUnauthorized
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authClient(token).Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
