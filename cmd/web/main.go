package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/helium/etl-extract/pkg/server"
	"github.com/helium/etl-extract/pkg/services/config"
	"github.com/helium/etl-extract/pkg/services/report"
	"github.com/helium/etl-extract/pkg/store/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var sources config.Sources

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the report API server",
		SilenceUsage: true,
		RunE:         runServer,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&sources.EnvFile, "env", "e", ".env", "Load environment variables from this dotenv file")
	flags.StringVar(&sources.Profiles, "profiles", "", "Path to an ini file of connection profiles")
	flags.StringVar(&sources.Profile, "profile", "", "Profile to read from the profiles file")
	flags.String("server-host", "", "Listen host (env SERVER_HOST)")
	flags.String("server-port", "", "Listen port (env SERVER_PORT)")
	flags.String("log-level", config.DefaultLogLevel, "Log level")
	flags.Duration("timeout", 0, "Per-request timeout (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	if _, err := os.Stat(sources.EnvFile); err != nil {
		logger.Warn().Err(err).Msg("env file not loaded")
		sources.EnvFile = ""
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loader.Load(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger = logger.Level(cfg.LogLevel)

	settings := postgres.DefaultSettings(cfg.DatabaseURL)
	settings.MaxConns = cfg.MaxConns
	db, err := postgres.NewDB(ctx, settings)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.ServerHost == "" || cfg.ServerPort == "" {
		return fmt.Errorf("missing server configuration: set SERVER_HOST and SERVER_PORT")
	}
	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)

	api := server.NewWebAPI(logger, server.Config{
		Addr:            addr,
		ShutdownTimeout: 10 * time.Second,
		RequestTimeout:  cfg.Timeout,
		Dependencies: server.Dependencies{
			Reports: report.NewFromDB(db, report.Options{Concurrency: cfg.Concurrency}),
		},
	})

	return api.Start()
}
