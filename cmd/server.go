package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/takutakahashi/orderkuota-proxy/internal/app"
	"github.com/takutakahashi/orderkuota-proxy/pkg/config"
	"github.com/takutakahashi/orderkuota-proxy/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var (
	port    string
	cfg     string
	verbose bool
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the OrderKuota Proxy Server",
	Long:  "Start the HTTP proxy that relays login, OTP, mutation and withdraw calls to the OrderKuota API",
	RunE:  runServer,
}

func init() {
	ServerCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	ServerCmd.Flags().StringVarP(&cfg, "config", "c", "", "Configuration file path (json, yaml or toml)")
	ServerCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request at info level")

	// Bind flags to viper
	if err := viper.BindPFlag("port", ServerCmd.Flags().Lookup("port")); err != nil {
		log.Printf("Failed to bind port flag: %v", err)
	}
	if err := viper.BindPFlag("verbose", ServerCmd.Flags().Lookup("verbose")); err != nil {
		log.Printf("Failed to bind verbose flag: %v", err)
	}
}

// newServer resolves configuration from v and the config file, then builds
// the logger and the server
func newServer(v *viper.Viper, cfgFile string) (*app.Server, *zap.Logger, error) {
	configData, err := config.LoadConfigWithViper(v, cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := logger.New(configData.Log.Level, configData.Log.Format)
	if err != nil {
		return nil, nil, err
	}

	return app.NewServer(configData, zlog), zlog, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	server, zlog, err := newServer(viper.GetViper(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = zlog.Sync()
	}()

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		zlog.Error("server failed to start", zap.Error(err))
		return err
	case sig := <-quit:
		zlog.Info("shutdown signal received, shutting down gracefully", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zlog.Error("server shutdown error", zap.Error(err))
		return err
	}

	zlog.Info("server shutdown complete")
	return nil
}
