package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/helium/etl-extract/pkg/runtime/terminal/commands"
	"github.com/helium/etl-extract/pkg/services/config"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/helium/etl-extract/pkg/sink"
	"github.com/helium/etl-extract/pkg/store/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// ServiceFactory opens the reports backend for a resolved configuration.
// The returned closer releases it once the command finishes.
type ServiceFactory func(ctx context.Context, cfg config.Config) (report.Reports, io.Closer, error)

// PostgresServiceFactory connects to the configured database.
func PostgresServiceFactory(ctx context.Context, cfg config.Config) (report.Reports, io.Closer, error) {
	settings := postgres.DefaultSettings(cfg.DatabaseURL)
	settings.MaxConns = cfg.MaxConns

	db, err := postgres.NewDB(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	return report.NewFromDB(db, report.Options{Concurrency: cfg.Concurrency}), closerFunc(db.Close), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// CLI represents the command-line interface
type CLI struct {
	services ServiceFactory
	opener   *sink.Opener
	errOut   io.Writer
	loader   *config.Loader
	rootCmd  *cobra.Command

	sources config.Sources
	output  string
}

// Options contain configuration for the CLI
type Options struct {
	Services ServiceFactory
	Output   io.Writer
	// ErrOutput receives logs.
	ErrOutput io.Writer
	// Opener resolves -o destinations. Defaults to one writing to Output.
	Opener *sink.Opener
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Services == nil {
		opts.Services = PostgresServiceFactory
	}
	if opts.Opener == nil {
		opts.Opener = sink.NewOpener(opts.Output)
	}

	cli := &CLI{
		services: opts.Services,
		opener:   opts.Opener,
		errOut:   opts.ErrOutput,
		loader:   config.NewLoader(),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args[1:].
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "etl-extract",
		Short:         "Extract reports from a blockchain ETL database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.sources.EnvFile, "env", "e", "", "Load environment variables from this dotenv file")
	flags.StringVar(&cli.sources.Profiles, "profiles", "", "Path to an ini file of connection profiles")
	flags.StringVar(&cli.sources.Profile, "profile", "", "Profile to read from the profiles file")
	flags.String("database-url", "", "Database connection URL (env DATABASE_URL)")
	flags.Int("max-conns", config.DefaultMaxConns, "Maximum open database connections")
	flags.Int("concurrency", config.DefaultConcurrency, "Maximum concurrent lookups in multi-date reports")
	flags.String("log-level", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")
	flags.Duration("timeout", 0, "Abort the command after this long (0 disables)")
	flags.StringVarP(&cli.output, "output", "o", sink.Stdout, "Write output to -, a file path or s3://bucket/key")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.loader.BindFlags(cmd.Root().PersistentFlags())
	}

	cmd.AddCommand(commands.NewBlocksCmd(cli.run))
	cmd.AddCommand(commands.NewRewardsCmd(cli.run))
	cmd.AddCommand(commands.NewHotspotsCmd(cli.run))
	cmd.AddCommand(commands.NewSupplyCmd(cli.run))
	cmd.AddCommand(commands.NewBalanceCmd(cli.run))

	return cmd
}

// run resolves configuration, opens the backend and the output destination,
// and hands both to fn.
func (cli *CLI) run(cmd *cobra.Command, fn commands.RunFunc) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bootstrap := zerolog.New(cli.errOut).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	cfg, err := cli.loader.Load(bootstrap.WithContext(ctx), cli.sources)
	if err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.errOut, TimeFormat: time.RFC3339, NoColor: true}).
		With().Timestamp().Logger().Level(cfg.LogLevel)
	ctx = logger.WithContext(ctx)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	svc, closer, err := cli.services(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open reports backend: %w", err)
	}
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("failed to close reports backend")
		}
	}()

	out, err := cli.opener.Open(ctx, cli.output)
	if err != nil {
		return err
	}

	runErr := fn(ctx, svc, out)
	closeErr := out.Close()
	return errors.Join(runErr, closeErr)
}
