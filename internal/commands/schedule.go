package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/clock"
	"github.com/cleared-dev/forecast/internal/config"
	"github.com/cleared-dev/forecast/internal/scheduler"
)

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	var runNow bool
	var balance string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Refresh and record reports on the configured cron schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ws, err := openWorkspace(ctx, opts.dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			start := ws.cfg.Schedule.Balance
			if cmd.Flags().Changed("balance") {
				start, err = decimal.NewFromString(balance)
				if err != nil {
					return fmt.Errorf("parsing --balance %q: %w", balance, err)
				}
			}

			svc, err := ws.service(clock.Real{})
			if err != nil {
				return err
			}
			s := scheduler.New(ctx, svc, ws.recorder, start, ws.log)
			n, err := s.Register(ws.cfg.Schedule)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("no schedules configured in %s", config.FileName)
			}

			if runNow {
				for _, run := range []func() error{s.RunForecastNow, s.RunRiskNow, s.RunBudgetNow} {
					if err := run(); err != nil {
						ws.log.WithError(err).Error("initial run failed")
					}
				}
			}

			s.Start()
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "run every report once before waiting for the schedule")
	cmd.Flags().StringVar(&balance, "balance", "", "starting balance for forecasts (default schedule.balance)")

	return cmd
}
