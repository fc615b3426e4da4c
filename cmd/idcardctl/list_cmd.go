package main

import (
	"github.com/spf13/cobra"

	"github.com/wso2/idcard-reissue-api/internal/admin"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the request table, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			if raw {
				records, err := rt.Store.LoadAll(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), records)
			}

			service := admin.NewService(rt.Store, admin.OptionsFromConfig(&rt.Config.Admin), rt.Logger)
			rows, err := service.RenderTable(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored records in insertion order")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the total, pending and completed counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			service := admin.NewService(rt.Store, admin.OptionsFromConfig(&rt.Config.Admin), rt.Logger)
			stats, err := service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}
