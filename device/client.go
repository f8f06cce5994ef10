package device

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sprinklex-server/entities"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 3 * time.Second

// Client is a handle on one controller base URL.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	sources []entities.WaterSource
	client  *http.Client
}

type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets the http.Client used for requests. If nil, the
// http.DefaultClient is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithWaterSources replaces the default valve layout.
func WithWaterSources(sources []entities.WaterSource) Option {
	return func(c *Client) {
		if len(sources) > 0 {
			c.sources = sources
		}
	}
}

// NewClient creates a client for the controller at baseURL
// (e.g. "http://192.168.4.1"). token is sent as a bearer token when set.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: DefaultTimeout,
		sources: entities.DefaultWaterSources(),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) WaterSources() []entities.WaterSource {
	out := make([]entities.WaterSource, len(c.sources))
	copy(out, c.sources)
	return out
}

// Host is the base URL without its scheme.
func (c *Client) Host() string {
	h := strings.TrimPrefix(c.baseURL, "http://")
	return strings.TrimPrefix(h, "https://")
}

// Response is a decoded controller reply. Raw always holds the trimmed body;
// Fields is set only when the body was a JSON object.
type Response struct {
	Fields    map[string]interface{}
	Raw       string
	Body      string
	PlainText bool
}

func (c *Client) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	// GETs carry no Content-Type so browsers relaying through us never
	// need a preflight.
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Fetch performs a GET against endpoint and decodes the body.
func (c *Client) Fetch(ctx context.Context, endpoint string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Code: res.StatusCode, Status: reasonPhrase(res)}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return parseBody(body), nil
}

// Ping reports whether GET /status answers with any 2xx status in time.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, "/status")
	if err != nil {
		return false
	}
	res, err := c.client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, res.Body)
	res.Body.Close()
	return res.StatusCode >= 200 && res.StatusCode <= 299
}

// reasonPhrase is the controller's own status text, e.g. "Busy" from
// "503 Busy", falling back to the standard text when it sent none.
func reasonPhrase(res *http.Response) string {
	phrase := strings.TrimSpace(strings.TrimPrefix(res.Status, strconv.Itoa(res.StatusCode)))
	if phrase == "" {
		return http.StatusText(res.StatusCode)
	}
	return phrase
}

func parseBody(body []byte) *Response {
	raw := strings.TrimSpace(string(body))
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err == nil && fields != nil {
		return &Response{Fields: fields, Raw: raw, Body: string(body)}
	}
	return &Response{Raw: raw, Body: string(body), PlainText: true}
}
