package orderkuota

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/takutakahashi/orderkuota-proxy/pkg/form"
	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// Caller is the subset of the upstream client used by the service
type Caller interface {
	Call(ctx context.Context, method, path string, body *form.Payload) (upstream.Response, error)
}

// Service exposes the provider operations. It holds no per-call state and
// is safe for concurrent use.
type Service struct {
	caller   Caller
	identity Identity
}

// NewService creates a new Service
func NewService(caller Caller, identity Identity) *Service {
	return &Service{
		caller:   caller,
		identity: identity,
	}
}

// Identity returns the app identity sent with every request
func (s *Service) Identity() Identity {
	return s.identity
}

// Login starts the provider login flow. The provider usually answers with
// an OTP challenge that is completed through VerifyOTP.
func (s *Service) Login(ctx context.Context, username, password string) (upstream.Response, error) {
	payload, err := s.LoginPayload(username, password)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, http.MethodPost, PathLogin, payload)
}

// VerifyOTP exchanges an OTP for an auth token.
func (s *Service) VerifyOTP(ctx context.Context, username, otp string) (upstream.Response, error) {
	payload, err := s.VerifyOTPPayload(username, otp)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, http.MethodPost, PathLogin, payload)
}

// FetchTransactions returns the first page of QRIS mutations, optionally
// filtered by kind.
func (s *Service) FetchTransactions(ctx context.Context, creds Credentials, kind TransactionKind) (upstream.Response, error) {
	payload, err := s.TransactionsPayload(creds, kind)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, http.MethodPost, PathGet, payload)
}

// Withdraw moves amount from the QRIS balance to the account balance.
func (s *Service) Withdraw(ctx context.Context, creds Credentials, amount decimal.Decimal) (upstream.Response, error) {
	payload, err := s.WithdrawPayload(creds, amount)
	if err != nil {
		return nil, err
	}
	return s.caller.Call(ctx, http.MethodPost, PathGet, payload)
}

// LoginPayload builds the /login body for a password login
func (s *Service) LoginPayload(username, password string) (*form.Payload, error) {
	if username == "" || password == "" {
		return nil, upstream.NewError(upstream.KindInvalidInput, "username and password are required")
	}
	return s.loginPayload(username, password), nil
}

// VerifyOTPPayload builds the /login body for OTP verification. The
// provider takes the OTP in the password field.
func (s *Service) VerifyOTPPayload(username, otp string) (*form.Payload, error) {
	if username == "" || otp == "" {
		return nil, upstream.NewError(upstream.KindInvalidInput, "username and OTP are required")
	}
	return s.loginPayload(username, otp), nil
}

// TransactionsPayload builds the /get body for the QRIS history request
func (s *Service) TransactionsPayload(creds Credentials, kind TransactionKind) (*form.Payload, error) {
	if err := RequireCredentials(creds); err != nil {
		return nil, err
	}
	kind, err := ParseTransactionKind(string(kind))
	if err != nil {
		return nil, err
	}

	return form.New().
		Add("auth_token", creds.Token).
		Add("auth_username", creds.Username).
		Add("requests[qris_history][jumlah]", "").
		Add("requests[qris_history][jenis]", string(kind)).
		Add("requests[qris_history][page]", 1).
		Add("requests[qris_history][dari_tanggal]", "").
		Add("requests[qris_history][ke_tanggal]", "").
		Add("requests[qris_history][keterangan]", "").
		Add("requests[0]", "account").
		Add("app_version_name", s.identity.AppVersionName).
		Add("app_version_code", s.identity.AppVersionCode).
		Add("app_reg_id", s.identity.AppRegID), nil
}

// WithdrawPayload builds the /get body for a QRIS withdrawal. The amount is
// sent in its normalized decimal form: no exponent and no trailing
// fractional zeros, so "2500.50" goes out as 2500.5 and "1e4" as 10000.
func (s *Service) WithdrawPayload(creds Credentials, amount decimal.Decimal) (*form.Payload, error) {
	if err := RequireCredentials(creds); err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	return form.New().
		Add("app_reg_id", s.identity.AppRegID).
		Add("app_version_code", s.identity.AppVersionCode).
		Add("auth_username", creds.Username).
		Add("requests[qris_withdraw][amount]", amount).
		Add("auth_token", creds.Token).
		Add("app_version_name", s.identity.AppVersionName), nil
}

func (s *Service) loginPayload(username, secret string) *form.Payload {
	return form.New().
		Add("username", username).
		Add("password", secret).
		Add("app_reg_id", s.identity.AppRegID).
		Add("app_version_code", s.identity.AppVersionCode).
		Add("app_version_name", s.identity.AppVersionName)
}

// RequireCredentials fails with KindUnauthenticated unless both username
// and token are present
func RequireCredentials(creds Credentials) error {
	if !creds.Complete() {
		return upstream.NewError(upstream.KindUnauthenticated, "authentication token and username are required for this action")
	}
	return nil
}
