// Package commands holds the report subcommands of the CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/helium/etl-extract/pkg/models/domain"
	"github.com/helium/etl-extract/pkg/runtime/terminal/export"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RunFunc performs a report against svc and writes it to out.
type RunFunc func(ctx context.Context, svc report.Reports, out io.Writer) error

// Runner prepares the reports backend and the output destination for cmd.
type Runner func(cmd *cobra.Command, fn RunFunc) error

// window is a start date and a signed day count read from "<date> [days]".
type window struct {
	days int64
}

func (w *window) register(flags *pflag.FlagSet, def int64) {
	flags.Int64Var(&w.days, "days", def, "Number of days in the window; negative counts back from the date")
	// Keeps a negative positional day count from being read as a flag.
	flags.SetInterspersed(false)
}

func (w *window) parse(cmd *cobra.Command, args []string) (domain.Date, int64, error) {
	date, err := domain.ParseDate(args[0])
	if err != nil {
		return domain.Date{}, 0, err
	}
	if len(args) < 2 {
		if err := domain.ValidateDays(w.days); err != nil {
			return domain.Date{}, 0, err
		}
		return date, w.days, nil
	}
	if cmd.Flags().Changed("days") {
		return domain.Date{}, 0, fmt.Errorf("days given both as argument and as --days")
	}
	days, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return domain.Date{}, 0, fmt.Errorf("invalid days %q: %w", args[1], err)
	}
	if err := domain.ValidateDays(days); err != nil {
		return domain.Date{}, 0, err
	}
	return date, days, nil
}

func formatFlag(flags *pflag.FlagSet, f *export.Format) {
	flags.VarP(f, "format", "f", "Output format: json or csv")
}

func writeRows[T any](ctx context.Context, out io.Writer, format export.Format, seq iter.Seq2[T, error]) error {
	n, err := export.Write(export.NewSink(out), format, seq)
	logger := zerolog.Ctx(ctx)
	if err != nil {
		logger.Error().Err(err).Int("records", n).Msg("report truncated")
		return err
	}
	logger.Info().Int("records", n).Str("format", format.String()).Msg("report written")
	return nil
}

func writeObject[T any](out io.Writer, v T) error {
	return export.WriteOne(export.NewSink(out), export.FormatJSON, v)
}
