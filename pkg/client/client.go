package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/takutakahashi/orderkuota-proxy/pkg/utils"
)

// Client represents an orderkuota-proxy client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new orderkuota-proxy client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewDefaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginRequest represents the body of /api/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// OTPRequest represents the body of /api/otp
type OTPRequest struct {
	Username string `json:"username"`
	OTPCode  string `json:"otpCode"`
}

// MutasiRequest represents the body of /api/mutasi
type MutasiRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Type     string `json:"type,omitempty"`
}

// WithdrawRequest represents the body of /api/withdraw
type WithdrawRequest struct {
	Username string          `json:"username"`
	Token    string          `json:"token"`
	Amount   decimal.Decimal `json:"amount"`
}

// ErrorResponse is the body the proxy returns on failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// Login starts the login flow; the provider usually answers with an OTP challenge
func (c *Client) Login(ctx context.Context, req *LoginRequest) (json.RawMessage, error) {
	return c.post(ctx, "/api/login", req)
}

// VerifyOTP exchanges the OTP for an auth token
func (c *Client) VerifyOTP(ctx context.Context, req *OTPRequest) (json.RawMessage, error) {
	return c.post(ctx, "/api/otp", req)
}

// Mutasi fetches the QRIS transaction history
func (c *Client) Mutasi(ctx context.Context, req *MutasiRequest) (json.RawMessage, error) {
	return c.post(ctx, "/api/mutasi", req)
}

// Withdraw moves QRIS balance to the account balance
func (c *Client) Withdraw(ctx context.Context, req *WithdrawRequest) (json.RawMessage, error) {
	return c.post(ctx, "/api/withdraw", req)
}

// Health checks the proxy health endpoint
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer utils.SafeCloseResponse(resp, nil)

	if !utils.IsSuccess(resp.StatusCode) {
		return utils.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode), URL: httpReq.URL.String()}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer utils.SafeCloseResponse(resp, nil)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !utils.IsSuccess(resp.StatusCode) {
		message := strings.TrimSpace(string(respBody))
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return nil, utils.HTTPError{StatusCode: resp.StatusCode, Message: message, URL: httpReq.URL.String()}
	}

	if !json.Valid(respBody) {
		return nil, fmt.Errorf("proxy returned invalid JSON")
	}
	return json.RawMessage(respBody), nil
}
