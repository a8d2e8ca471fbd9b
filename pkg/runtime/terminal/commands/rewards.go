package commands

import (
	"context"
	"io"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/runtime/terminal/export"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/spf13/cobra"
)

func NewRewardsCmd(run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Reward reports",
	}
	cmd.AddCommand(newHexRewardsCmd(run))
	cmd.AddCommand(newNetworkRewardsCmd(run))
	cmd.AddCommand(newAccountRewardsCmd(run))
	return cmd
}

type HexRewardsCmd struct {
	window
	format export.Format
	run    Runner
}

func newHexRewardsCmd(run Runner) *cobra.Command {
	hc := &HexRewardsCmd{run: run}
	cmd := &cobra.Command{
		Use:   "hex [flags] <date> [days]",
		Short: "Rewards per hex over a window of days",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  hc.runE,
	}
	hc.register(cmd.Flags(), -1)
	formatFlag(cmd.Flags(), &hc.format)
	return cmd
}

func (hc *HexRewardsCmd) runE(cmd *cobra.Command, args []string) error {
	date, days, err := hc.parse(cmd, args)
	if err != nil {
		return err
	}
	return hc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		rows, err := svc.HexRewards(ctx, date, days)
		if err != nil {
			return err
		}
		return writeRows(ctx, out, hc.format, rows)
	})
}

type NetworkRewardsCmd struct {
	window
	run Runner
}

func newNetworkRewardsCmd(run Runner) *cobra.Command {
	nc := &NetworkRewardsCmd{run: run}
	cmd := &cobra.Command{
		Use:   "network [flags] <date> [days]",
		Short: "Network-wide reward statistics over a window of days",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  nc.runE,
	}
	nc.register(cmd.Flags(), -1)
	return cmd
}

func (nc *NetworkRewardsCmd) runE(cmd *cobra.Command, args []string) error {
	date, days, err := nc.parse(cmd, args)
	if err != nil {
		return err
	}
	return nc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		summary, err := svc.NetworkRewards(ctx, date, days)
		if err != nil {
			return err
		}
		return writeObject(out, summary)
	})
}

type AccountRewardsCmd struct {
	format export.Format
	run    Runner
}

func newAccountRewardsCmd(run Runner) *cobra.Command {
	ac := &AccountRewardsCmd{run: run}
	cmd := &cobra.Command{
		Use:   "account [flags] <account> <start> <end>",
		Short: "Validator and securities rewards for an account between two dates",
		Args:  cobra.ExactArgs(3),
		RunE:  ac.runE,
	}
	formatFlag(cmd.Flags(), &ac.format)
	return cmd
}

func (ac *AccountRewardsCmd) runE(cmd *cobra.Command, args []string) error {
	dates, err := domain.ParseDates(args[1:])
	if err != nil {
		return err
	}
	account, start, end := args[0], dates[0], dates[1]
	return ac.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		rows, err := svc.ValidatorRewards(ctx, account, start, end)
		if err != nil {
			return err
		}
		return writeRows(ctx, out, ac.format, rows)
	})
}
