package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/takutakahashi/orderkuota-proxy/pkg/client"
)

var (
	endpoint      string
	username      string
	password      string
	otpCode       string
	token         string
	mutasiType    string
	amount        string
	clientTimeout time.Duration
)

var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "OrderKuota Proxy Client CLI",
	Long: `Command line client for a running orderkuota-proxy.

The endpoint is taken from --endpoint or the ORDERKUOTA_PROXY_ENDPOINT
environment variable.

Examples:
  # Start a login and receive an OTP
  orderkuota-proxy client login -u alice --password s3cret

  # Exchange the OTP for a token
  orderkuota-proxy client otp -u alice --otp 123456

  # List incoming QRIS transactions
  orderkuota-proxy client mutasi -u alice --token 1:abc --type kredit`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a login",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *client.Client) (json.RawMessage, error) {
			return c.Login(ctx, &client.LoginRequest{Username: username, Password: password})
		})
	},
}

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Verify an OTP and obtain a token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *client.Client) (json.RawMessage, error) {
			return c.VerifyOTP(ctx, &client.OTPRequest{Username: username, OTPCode: otpCode})
		})
	},
}

var mutasiCmd = &cobra.Command{
	Use:   "mutasi",
	Short: "Fetch QRIS transaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *client.Client) (json.RawMessage, error) {
			return c.Mutasi(ctx, &client.MutasiRequest{Username: username, Token: token, Type: mutasiType})
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw QRIS balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", amount, err)
		}
		return runClient(cmd, func(ctx context.Context, c *client.Client) (json.RawMessage, error) {
			return c.Withdraw(ctx, &client.WithdrawRequest{Username: username, Token: token, Amount: value})
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check proxy health",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newProxyClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := c.Health(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return err
	},
}

func init() {
	ClientCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "Proxy endpoint URL")
	ClientCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 60*time.Second, "Request timeout")

	for _, c := range []*cobra.Command{loginCmd, otpCmd, mutasiCmd, withdrawCmd} {
		c.Flags().StringVarP(&username, "username", "u", "", "OrderKuota username")
		if err := c.MarkFlagRequired("username"); err != nil {
			panic(err)
		}
	}

	loginCmd.Flags().StringVar(&password, "password", "", "Account password")
	otpCmd.Flags().StringVar(&otpCode, "otp", "", "OTP code received after login")
	mutasiCmd.Flags().StringVar(&token, "token", "", "Auth token from the OTP step")
	mutasiCmd.Flags().StringVar(&mutasiType, "type", "", "Filter by kredit or debet")
	withdrawCmd.Flags().StringVar(&token, "token", "", "Auth token from the OTP step")
	withdrawCmd.Flags().StringVar(&amount, "amount", "", "Amount to withdraw")

	for c, flag := range map[*cobra.Command]string{
		loginCmd:    "password",
		otpCmd:      "otp",
		mutasiCmd:   "token",
		withdrawCmd: "amount",
	} {
		if err := c.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	if err := withdrawCmd.MarkFlagRequired("token"); err != nil {
		panic(err)
	}

	ClientCmd.AddCommand(loginCmd)
	ClientCmd.AddCommand(otpCmd)
	ClientCmd.AddCommand(mutasiCmd)
	ClientCmd.AddCommand(withdrawCmd)
	ClientCmd.AddCommand(healthCmd)
}

func newProxyClient() (*client.Client, error) {
	resolved, err := client.ResolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return client.NewClient(resolved), nil
}

// runClient performs call against the proxy and prints the indented response
func runClient(cmd *cobra.Command, call func(ctx context.Context, c *client.Client) (json.RawMessage, error)) error {
	c, err := newProxyClient()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	resp, err := call(ctx, c)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, resp, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	out.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(out.Bytes())
	return err
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, clientTimeout)
}
