package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	fastshot "github.com/opus-domini/fast-shot"
	"go.uber.org/zap"

	"github.com/takutakahashi/orderkuota-proxy/pkg/form"
	"github.com/takutakahashi/orderkuota-proxy/pkg/utils"
)

const (
	// DefaultBaseURL is the provider API root. The Host header sent on the
	// wire is derived from it.
	DefaultBaseURL = "https://app.orderkuota.com/api/v2"
	// DefaultUserAgent mimics the provider's Android app
	DefaultUserAgent = "okhttp/4.10.0"
	// ContentTypeForm is the only body encoding the provider accepts
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Response is the provider's JSON body, passed through verbatim
type Response = json.RawMessage

// Observer receives the outcome of every upstream call. kind is empty on success.
type Observer interface {
	ObserveCall(method, path string, kind Kind, duration time.Duration)
}

// Client performs single requests against the provider API
type Client struct {
	http     fastshot.ClientHttpMethods
	baseURL  string
	logger   *zap.Logger
	observer Observer
}

type options struct {
	baseURL  string
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer
}

// Option configures a Client
type Option func(*options)

// WithBaseURL overrides the provider base URL. Intended for tests.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger used for call diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver registers a call observer (metrics)
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// NewClient creates a provider client with the fixed header set
func NewClient(opts ...Option) *Client {
	o := &options{
		baseURL: DefaultBaseURL,
		timeout: utils.DefaultHTTPClientConfig().Timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := fastshot.NewClient(o.baseURL).
		Header().Add("User-Agent", DefaultUserAgent).
		Header().Add("Content-Type", ContentTypeForm).
		Config().SetTimeout(o.timeout).
		Build()

	return &Client{
		http:     httpClient,
		baseURL:  o.baseURL,
		logger:   o.logger,
		observer: o.observer,
	}
}

// BaseURL returns the provider base URL in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call sends one request to baseURL+path and returns the parsed JSON body.
// A nil or empty body sends no payload. Every failure is an *Error.
func (c *Client) Call(ctx context.Context, method, path string, body *form.Payload) (Response, error) {
	start := time.Now()
	resp, status, err := c.do(ctx, method, path, body)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveCall(method, path, KindOf(err), elapsed)
	}

	if err != nil {
		c.logger.Error("upstream request failed",
			zap.String("method", method),
			zap.String("url", c.baseURL+path),
			zap.Int("status", status),
			zap.String("kind", string(KindOf(err))),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("upstream request completed",
		zap.String("method", method),
		zap.String("url", c.baseURL+path),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *form.Payload) (Response, int, error) {
	req, err := c.newRequest(method, path)
	if err != nil {
		return nil, 0, err
	}
	req = req.Context().Set(ctx)
	if body != nil && body.Len() > 0 {
		req = req.Body().AsString(body.Encode())
	}

	resp, err := req.Send()
	if err != nil {
		return nil, 0, &Error{
			Kind:    KindTransport,
			Message: fmt.Sprintf("failed to reach upstream: %v", err),
			Err:     err,
		}
	}

	status := resp.Status().Code()
	text, err := resp.Body().AsString()
	if err != nil {
		return nil, status, &Error{
			Kind:       KindTransport,
			Message:    fmt.Sprintf("failed to read upstream response: %v", err),
			StatusCode: status,
			Err:        err,
		}
	}

	// The body is parsed before the status is inspected, so a non-JSON
	// error page surfaces as a parse failure.
	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, status, &Error{
			Kind:       KindParse,
			Message:    fmt.Sprintf("failed to parse upstream response (status %d): %v", status, err),
			StatusCode: status,
			Err:        err,
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		message := messageOf(decoded)
		if message == "" {
			message = fmt.Sprintf("upstream returned status %d", status)
		}
		return nil, status, &Error{
			Kind:       KindUpstream,
			Message:    message,
			StatusCode: status,
		}
	}

	return Response(text), status, nil
}

func (c *Client) newRequest(method, path string) (*fastshot.RequestBuilder, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return c.http.GET(path), nil
	case http.MethodPost:
		return c.http.POST(path), nil
	case http.MethodPut:
		return c.http.PUT(path), nil
	case http.MethodPatch:
		return c.http.PATCH(path), nil
	case http.MethodDelete:
		return c.http.DELETE(path), nil
	}
	return nil, Errorf(KindInvalidInput, "unsupported HTTP method %q", method)
}

// messageOf extracts a non-empty string "message" field from a JSON object
func messageOf(decoded interface{}) string {
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return ""
	}
	msg, ok := obj["message"].(string)
	if !ok {
		return ""
	}
	return msg
}
