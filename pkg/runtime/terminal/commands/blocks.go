package commands

import (
	"context"
	"io"

	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/spf13/cobra"
)

func NewBlocksCmd(run Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Block height commands",
	}
	cmd.AddCommand(newSpanCmd(run))
	return cmd
}

type SpanCmd struct {
	window
	run Runner
}

func newSpanCmd(run Runner) *cobra.Command {
	sc := &SpanCmd{run: run}
	cmd := &cobra.Command{
		Use:   "span [flags] <date> [days]",
		Short: "Show the block range covering a number of days from a date",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  sc.runE,
	}
	sc.register(cmd.Flags(), 1)
	return cmd
}

func (sc *SpanCmd) runE(cmd *cobra.Command, args []string) error {
	date, days, err := sc.parse(cmd, args)
	if err != nil {
		return err
	}
	return sc.run(cmd, func(ctx context.Context, svc report.Reports, out io.Writer) error {
		span, err := svc.Span(ctx, date, days)
		if err != nil {
			return err
		}
		return writeObject(out, span)
	})
}
