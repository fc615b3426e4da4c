package main

import (
	"github.com/spf13/cobra"

	"github.com/wso2/idcard-reissue-api/internal/store"
)

type seedOutput struct {
	Seeded bool `json:"seeded"`
	Count  int  `json:"count"`
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the seed requests if the list has never been written",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			records := store.DefaultSeed()
			if file != "" {
				if records, err = store.LoadSeedFile(file); err != nil {
					return err
				}
			} else if rt.Config.Storage.SeedFile != "" {
				if records, err = store.LoadSeedFile(rt.Config.Storage.SeedFile); err != nil {
					return err
				}
			}

			seeded, err := rt.Store.Seed(cmd.Context(), records)
			if err != nil {
				return err
			}
			out := seedOutput{Seeded: seeded}
			if seeded {
				out.Count = len(records)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML seed file (default: storage.seed_file or the built-in demo records)")
	return cmd
}
