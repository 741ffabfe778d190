package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"home-price-api/config"
	"home-price-api/services"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "homeprice",
		Short:         "Home price prediction tooling",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(modelCmd())
	rootCmd.AddCommand(migrateCmd())

	return rootCmd
}

func predictCmd() *cobra.Command {
	var (
		sqft     float64
		bedrooms int
	)
	cmd := &cobra.Command{
		Use:     "predict",
		Short:   "Price a home without storing anything",
		Example: `  homeprice predict --sqft 1500 --bedrooms 3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.ValidateMeasurements(sqft, bedrooms); err != nil {
				var e *services.Error
				if errors.As(err, &e) {
					return errors.New(e.Reason)
				}
				return err
			}
			model, err := services.FitDefaultPriceModel()
			if err != nil {
				return fmt.Errorf("failed to train price model: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", model.Predict(sqft, bedrooms))
			return nil
		},
	}

	cmd.Flags().Float64Var(&sqft, "sqft", 0, "square footage")
	cmd.Flags().IntVar(&bedrooms, "bedrooms", 0, "number of bedrooms")
	_ = cmd.MarkFlagRequired("sqft")
	_ = cmd.MarkFlagRequired("bedrooms")

	return cmd
}

func modelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Print the fitted regression coefficients as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := services.FitDefaultPriceModel()
			if err != nil {
				return fmt.Errorf("failed to train price model: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(model.Coefficients())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the price_predictions table",
		Long: `Create or update the price_predictions table.

Connection settings come from the same environment variables (and .env
file) as the API server, so DB_DRIVER=sqlite works for local runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, closeDB, err := services.OpenDatabase(context.Background(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer closeDB()

			if err := services.AutoMigrate(db); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", cfg.Database.Driver)
			return nil
		},
	}
}
