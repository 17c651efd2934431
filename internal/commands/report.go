package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/forecast/internal/clock"
	"github.com/cleared-dev/forecast/internal/model"
	"github.com/cleared-dev/forecast/internal/recorder"
)

// reportFlags are shared by the report commands.
type reportFlags struct {
	asOf   string
	format string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "report date, YYYY-MM-DD or RFC 3339 (default now)")
	cmd.Flags().StringVar(&f.format, "format", formatText, "output format: text or json")
}

func (f *reportFlags) clock() (clock.Clock, error) {
	if err := checkFormat(f.format); err != nil {
		return nil, err
	}
	return clock.Parse(f.asOf, clock.Real{})
}

func newProjectCommand(opts *rootOptions) *cobra.Command {
	var flags reportFlags
	var balance string

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project cash flow by scenario and by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clk, err := flags.clock()
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), opts.dir, cmd.ErrOrStderr())
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

			svc, err := ws.service(clk)
			if err != nil {
				return err
			}
			rep, err := svc.Forecast(cmd.Context(), start)
			if err != nil {
				return err
			}
			run, err := recorder.ForecastRun(rep, time.Now())
			ws.record(cmd.Context(), run, err)

			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return printForecast(cmd.OutOrStdout(), rep)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&balance, "balance", "", "starting balance (default schedule.balance)")

	return cmd
}

func newRiskCommand(opts *rootOptions) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Score counterparties for delinquency risk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clk, err := flags.clock()
			if err != nil {
				return err
			}
			ws, err := openWorkspace(cmd.Context(), opts.dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			svc, err := ws.service(clk)
			if err != nil {
				return err
			}
			rep, err := svc.Risk(cmd.Context())
			if err != nil {
				return err
			}
			run, err := recorder.RiskRun(rep, time.Now())
			ws.record(cmd.Context(), run, err)

			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return printRisk(cmd.OutOrStdout(), rep)
		},
	}

	flags.register(cmd)

	return cmd
}

func newBudgetCommand(opts *rootOptions) *cobra.Command {
	var flags reportFlags
	var period string

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Track realized against planned amounts for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clk, err := flags.clock()
			if err != nil {
				return err
			}
			if period == "" {
				period = clk.Now().Format(model.PeriodLayout)
			} else if _, err := time.Parse(model.PeriodLayout, period); err != nil {
				return fmt.Errorf("parsing --period %q: want YYYY-MM", period)
			}

			ws, err := openWorkspace(cmd.Context(), opts.dir, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer ws.Close()

			svc, err := ws.service(clk)
			if err != nil {
				return err
			}
			rep, err := svc.Budget(cmd.Context(), period)
			if err != nil {
				return err
			}
			run, err := recorder.BudgetRun(rep, time.Now())
			ws.record(cmd.Context(), run, err)

			if flags.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return printBudget(cmd.OutOrStdout(), rep)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&period, "period", "", "budget period YYYY-MM (default the as-of month)")

	return cmd
}
