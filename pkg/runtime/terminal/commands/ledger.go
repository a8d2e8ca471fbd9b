package commands

import (
	"context"
	"io"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/runtime/terminal/export"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/spf13/cobra"
)

type SupplyCmd struct {
	format export.Format
	run    Runner
}

func NewSupplyCmd(run Runner) *cobra.Command {
	sc := &SupplyCmd{run: run}
	cmd := &cobra.Command{
		Use:   "supply [flags] <end>...",
		Short: "Token supply as of the start of each given date",
		Args:  cobra.MinimumNArgs(1),
		RunE:  sc.runE,
	}
	formatFlag(cmd.Flags(), &sc.format)
	return cmd
}

func (sc *SupplyCmd) runE(cmd *cobra.Command, args []string) error {
	ends, err := domain.ParseDates(args)
	if err != nil {
		return err
	}
	return sc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		return writeRows(ctx, out, sc.format, svc.Supply(ctx, ends))
	})
}

type BalanceCmd struct {
	format export.Format
	run    Runner
}

func NewBalanceCmd(run Runner) *cobra.Command {
	bc := &BalanceCmd{run: run}
	cmd := &cobra.Command{
		Use:   "balance [flags] <account> <end>...",
		Short: "Account balances for the day ending at each given date",
		Args:  cobra.MinimumNArgs(2),
		RunE:  bc.runE,
	}
	formatFlag(cmd.Flags(), &bc.format)
	return cmd
}

func (bc *BalanceCmd) runE(cmd *cobra.Command, args []string) error {
	ends, err := domain.ParseDates(args[1:])
	if err != nil {
		return err
	}
	account := args[0]
	return bc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		return writeRows(ctx, out, bc.format, svc.Balance(ctx, account, ends))
	})
}
