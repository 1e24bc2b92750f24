// Package main is the entry point for the stockroom inventory server.
//
// @title                       Stockroom API
// @version                     1.0
// @description                 Inventory management REST API with role-based access.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "stockroom/cmd/stockroom/docs"
	"stockroom/config"
	"stockroom/internal/app"
	"stockroom/internal/logging"
	"stockroom/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockroom",
		Short:         "Inventory management server",
		Long:          "stockroom serves the inventory REST API and provides maintenance commands for seeding data and managing users.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newSeedCmd(), newUserCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// loadConfig reads configuration and installs the configured logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := logging.Setup(os.Stderr, cfg.Log.Format, cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

// openHeadless builds an App without the HTTP server for maintenance commands.
func openHeadless(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, app.Config{AppConfig: cfg, Headless: true})
}
