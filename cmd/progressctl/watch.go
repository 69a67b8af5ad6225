package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream progress.updated events from the redis channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.Clients.Bus == nil {
			return fmt.Errorf("watch requires REDIS_ADDR")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := a.Clients.Bus.StartForwarder(ctx, func(ev redis.ProgressEvent) {
			_ = printJSON(cmd, ev)
		}); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	},
}
