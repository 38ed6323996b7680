package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orris-inc/paysync/internal/infrastructure/config"
	"github.com/orris-inc/paysync/internal/infrastructure/database"
	"github.com/orris-inc/paysync/internal/infrastructure/persistence/seeds"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

var (
	env        string
	configPath string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed reference data",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "plans",
		Short: "Upsert the default plan catalog",
		Long:  `Create or update the built-in plans by code. Safe to run repeatedly.`,
		RunE:  runPlans,
	})

	return cmd
}

func runPlans(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.NewLogger()

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	n, err := seeds.SeedPlans(database.Get())
	if err != nil {
		log.Errorw("failed to seed plans", "error", err)
		return fmt.Errorf("failed to seed plans: %w", err)
	}

	log.Infow("plans seeded", "count", n)
	fmt.Printf("Seeded %d plans\n", n)
	return nil
}
