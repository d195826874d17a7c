package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// Credentials are attached to every request when non-empty.
type Credentials struct {
	Token  string
	APIKey string
	Tenant string
}

// Options configures an HTTPClient.
type Options struct {
	Credentials Credentials
	TLS         *tls.Config
	Timeout     time.Duration
	UserAgent   string
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	creds     Credentials
	userAgent string
}

// NewHTTPClient creates a new HTTP client. A server without a scheme is
// reached over http, or https when opts.TLS is set.
func NewHTTPClient(server string, opts Options) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if opts.TLS != nil {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLS != nil {
		transport.TLSClientConfig = opts.TLS
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "tenantgate-cli"
	}

	return &HTTPClient{
		baseURL:   baseURL,
		creds:     opts.Credentials,
		userAgent: ua,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}
	if c.creds.APIKey != "" {
		req.Header.Set("X-API-Key", c.creds.APIKey)
	}
	if c.creds.Tenant != "" {
		req.Header.Set("X-Tenant-Id", c.creds.Tenant)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status     int
	Code       string
	Message    string
	RequestID  string
	RetryAfter int
}

func (e *APIError) Error() string {
	switch {
	case e.RetryAfter > 0:
		return fmt.Sprintf("%s (retry after %ds)", e.Message, e.RetryAfter)
	case e.Code != "":
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

// envelope covers the standard response and the rate limit rejection body.
type envelope struct {
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	RequestID  string          `json:"request_id"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	RetryAfter int             `json:"retryAfter"`
}

// ParseResponse decodes the data field of the response envelope into
// target. For error statuses it returns an *APIError; data present in an
// error response is still decoded so callers can show it.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Status:     resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
			RequestID:  env.RequestID,
			RetryAfter: env.RetryAfter,
		}
		if apiErr.Code == "OK" {
			apiErr.Code, apiErr.Message = "", ""
		}
		if env.Error != "" {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	return nil
}
