package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockroom/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var (
		count       int
		catalogPath string
		keep        bool
		randSeed    uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with random items",
		Long:  "seed clears existing items (unless --keep) and creates --count random items drawn from the catalog.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := seed.DefaultCatalog()
			if catalogPath != "" {
				var err error
				if catalog, err = seed.LoadCatalog(catalogPath); err != nil {
					return err
				}
			}

			application, err := openHeadless(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown(cmd.Context()) }()

			res, err := seed.Run(cmd.Context(), application.Items(), seed.Options{
				Count:   count,
				Keep:    keep,
				Seed:    randSeed,
				Catalog: catalog,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully seeded %d items (deleted %d, skipped %d).\n",
				res.Created, res.Deleted, res.Skipped)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", seed.DefaultCount, "number of items to create")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML file overriding categories and product names")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep existing items instead of clearing them first")
	cmd.Flags().Uint64Var(&randSeed, "rand-seed", 0, "random seed for reproducible data (0 picks one)")
	return cmd
}
