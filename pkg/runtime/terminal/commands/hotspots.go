package commands

import (
	"context"
	"io"

	"github.com/helium/etl-extract/pkg/runtime/terminal/export"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/spf13/cobra"
)

func NewHotspotsCmd(run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: "Hotspot reports",
	}
	cmd.AddCommand(newNetworkHotspotsCmd(run))
	return cmd
}

type NetworkHotspotsCmd struct {
	window
	format export.Format
	run    Runner
}

func newNetworkHotspotsCmd(run Runner) *cobra.Command {
	hc := &NetworkHotspotsCmd{run: run}
	cmd := &cobra.Command{
		Use:   "network [flags] <date> [days]",
		Short: "Hotspots added to the network by the end of a window, with locations",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  hc.runE,
	}
	hc.register(cmd.Flags(), -1)
	formatFlag(cmd.Flags(), &hc.format)
	return cmd
}

func (hc *NetworkHotspotsCmd) runE(cmd *cobra.Command, args []string) error {
	date, days, err := hc.parse(cmd, args)
	if err != nil {
		return err
	}
	return hc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		rows, err := svc.Hotspots(ctx, date, days)
		if err != nil {
			return err
		}
		return writeRows(ctx, out, hc.format, rows)
	})
}
