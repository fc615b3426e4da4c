package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wso2/idcard-reissue-api/internal/admin"
)

type watchOutput struct {
	Time  time.Time   `json:"time"`
	Stats admin.Stats `json:"stats"`
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the counts every time the request list changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := openRuntime(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			service := admin.NewService(rt.Store, admin.OptionsFromConfig(&rt.Config.Admin), rt.Logger)
			changes, unsubscribe := rt.Store.Changes()
			defer unsubscribe()

			report := func(ctx context.Context) error {
				stats, err := service.Stats(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), watchOutput{Time: time.Now().UTC(), Stats: stats})
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return rt.WatchStorage(gctx)
			})
			g.Go(func() error {
				if err := report(gctx); err != nil {
					return err
				}
				for {
					select {
					case <-gctx.Done():
						return nil
					case _, ok := <-changes:
						if !ok {
							return nil
						}
						if err := report(gctx); err != nil {
							return err
						}
					}
				}
			})
			return g.Wait()
		},
	}
}
