package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bandar/internal/schedule"
)

func watchCmd() *cobra.Command {
	var spec string
	var skipFirst, anyTime bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze the portfolio on a cron schedule (Jakarta time)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("cron") {
				spec = current.cfg.Schedule.RefreshCron
			}
			if spec == "" {
				return fmt.Errorf("no refresh schedule (set schedule.refresh_cron or --cron)")
			}

			ctx, cancel := signalContext()
			defer cancel()

			session := schedule.DefaultMarketSession()
			first := !skipFirst

			refresher, err := schedule.NewRefresher(ctx, spec, func(ctx context.Context) {
				status := session.Status(time.Now())
				if !status.IsOpen && !anyTime && !first {
					log.Printf("[SCHEDULE] market %s, next open in %v", status.Reason, status.TimeToOpen.Round(time.Minute))
					return
				}
				first = false

				fmt.Printf("\n=== %s (market %s) ===\n", status.Now.Format("2006-01-02 15:04 MST"), status.Reason)
				if err := current.store.Reload(); err != nil {
					fmt.Fprintf(os.Stderr, "Error: reloading store: %v\n", err)
				}
				if err := runPortfolio(ctx); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
			})
			if err != nil {
				return err
			}

			if !skipFirst {
				refresher.RunNow()
			}
			refresher.Start()
			fmt.Printf("Watching portfolio (%s). Next refresh: %s. Ctrl+C to stop.\n",
				spec, refresher.Next().Format("Mon 15:04"))

			<-ctx.Done()
			refresher.Stop()
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "refresh schedule, 5-field cron or @every (default from config)")
	cmd.Flags().BoolVar(&skipFirst, "skip-first", false, "wait for the first scheduled run")
	cmd.Flags().BoolVar(&anyTime, "any-time", false, "also refresh outside IDX trading hours")
	return cmd
}
