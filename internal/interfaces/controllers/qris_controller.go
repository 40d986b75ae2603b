package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/takutakahashi/orderkuota-proxy/pkg/orderkuota"
	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// OrderKuotaService is the provider operations used by the controller
type OrderKuotaService interface {
	Login(ctx context.Context, username, password string) (upstream.Response, error)
	VerifyOTP(ctx context.Context, username, otp string) (upstream.Response, error)
	FetchTransactions(ctx context.Context, creds orderkuota.Credentials, kind orderkuota.TransactionKind) (upstream.Response, error)
	Withdraw(ctx context.Context, creds orderkuota.Credentials, amount decimal.Decimal) (upstream.Response, error)
}

// LoginRequest represents the request body for POST /api/login
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// OTPRequest represents the request body for POST /api/otp
type OTPRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	OTPCode  string `json:"otpCode" form:"otpCode" validate:"required"`
}

// MutasiRequest represents the request body for POST /api/mutasi.
// Type is kredit, debet or empty for all.
type MutasiRequest struct {
	Username string `json:"username" form:"username"`
	Token    string `json:"token" form:"token"`
	Type     string `json:"type" form:"type"`
}

// WithdrawRequest represents the request body for POST /api/withdraw
type WithdrawRequest struct {
	Username string      `json:"username" form:"username"`
	Token    string      `json:"token" form:"token"`
	Amount   AmountParam `json:"amount" form:"amount"`
}

// AmountParam accepts an amount given either as a JSON number or a string
type AmountParam string

// UnmarshalJSON implements json.Unmarshaler
func (a *AmountParam) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountParam(s)
		return nil
	}
	*a = AmountParam(raw)
	return nil
}

// UnmarshalParam implements echo.BindUnmarshaler for form bodies
func (a *AmountParam) UnmarshalParam(param string) error {
	*a = AmountParam(param)
	return nil
}

// QrisController handles the provider-facing REST endpoints
type QrisController struct {
	service OrderKuotaService
}

// NewQrisController creates a new QrisController
func NewQrisController(service OrderKuotaService) *QrisController {
	return &QrisController{service: service}
}

// GetName returns the name of this controller for logging
func (c *QrisController) GetName() string {
	return "QrisController"
}

// RegisterRoutes registers the /api routes
func (c *QrisController) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/login", c.Login)
	api.POST("/otp", c.VerifyOTP)
	api.POST("/mutasi", c.Mutasi)
	api.POST("/withdraw", c.Withdraw)
}

// Login handles POST /api/login
func (c *QrisController) Login(ctx echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	resp, err := c.service.Login(ctx.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return relay(ctx, resp)
}

// VerifyOTP handles POST /api/otp
func (c *QrisController) VerifyOTP(ctx echo.Context) error {
	var req OTPRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	resp, err := c.service.VerifyOTP(ctx.Request().Context(), req.Username, req.OTPCode)
	if err != nil {
		return err
	}
	return relay(ctx, resp)
}

// Mutasi handles POST /api/mutasi
func (c *QrisController) Mutasi(ctx echo.Context) error {
	var req MutasiRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	creds := orderkuota.Credentials{Username: req.Username, Token: req.Token}
	resp, err := c.service.FetchTransactions(ctx.Request().Context(), creds, orderkuota.TransactionKind(req.Type))
	if err != nil {
		return err
	}
	return relay(ctx, resp)
}

// Withdraw handles POST /api/withdraw
func (c *QrisController) Withdraw(ctx echo.Context) error {
	var req WithdrawRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	creds := orderkuota.Credentials{Username: req.Username, Token: req.Token}
	if err := orderkuota.RequireCredentials(creds); err != nil {
		return err
	}
	amount, err := orderkuota.ParseAmount(string(req.Amount))
	if err != nil {
		return err
	}

	resp, err := c.service.Withdraw(ctx.Request().Context(), creds, amount)
	if err != nil {
		return err
	}
	return relay(ctx, resp)
}

func bindAndValidate(ctx echo.Context, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return err
	}
	return ctx.Validate(req)
}

// relay writes the provider JSON verbatim
func relay(ctx echo.Context, resp upstream.Response) error {
	return ctx.JSONBlob(http.StatusOK, resp)
}
