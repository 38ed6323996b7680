package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/paysync/internal/interfaces/cli/migrate"
	"github.com/orris-inc/paysync/internal/interfaces/cli/seed"
	"github.com/orris-inc/paysync/internal/interfaces/cli/server"
	"github.com/orris-inc/paysync/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "paysync",
		Short:   "paysync - payment notification reconciliation",
		Long:    `paysync receives payment gateway notifications and reconciles them into user entitlements.`,
		Version: version.Get(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		seed.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
