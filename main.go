package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/takutakahashi/orderkuota-proxy/cmd"
)

var rootCmd = &cobra.Command{
	Use:          "orderkuota-proxy",
	Short:        "OrderKuota API Proxy",
	Long:         "An HTTP proxy that exposes the OrderKuota QRIS login, mutation and withdraw API as a small JSON service",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.ServerCmd)
	rootCmd.AddCommand(cmd.ClientCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
