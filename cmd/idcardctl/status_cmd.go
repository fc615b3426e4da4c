package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wso2/idcard-reissue-api/internal/admin"
	"github.com/wso2/idcard-reissue-api/pkg/utils"
)

func newSetStatusCmd(opts *rootOptions) *cobra.Command {
	var actionBy string

	cmd := &cobra.Command{
		Use:   "set-status <request-id> <status>",
		Short: "Change the status of one request, as the admin modal does",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestID, err := utils.ParseRequestID(args[0])
			if err != nil {
				return err
			}
			status := utils.SanitizeString(args[1])

			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			service := admin.NewService(rt.Store, admin.OptionsFromConfig(&rt.Config.Admin), rt.Logger)
			console := admin.NewConsole(utils.GenerateSessionID(), service)
			if _, err := console.OpenModal(cmd.Context(), requestID); err != nil {
				return err
			}
			snapshot, err := console.UpdateStatus(cmd.Context(), status, actionBy)
			if err != nil {
				return fmt.Errorf("failed to update request %d: %w", requestID, err)
			}
			return writeJSON(cmd.OutOrStdout(), snapshot.Stats)
		},
	}

	cmd.Flags().StringVar(&actionBy, "by", "idcardctl", "Recorded as the acting admin in the audit trail")
	return cmd
}
