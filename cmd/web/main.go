package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/job-pulse/pkg/metrics"
	"github.com/de-tools/job-pulse/pkg/runtime/bootstrap"
	"github.com/de-tools/job-pulse/pkg/server"
	"github.com/de-tools/job-pulse/pkg/services/config"
	"github.com/de-tools/job-pulse/pkg/services/publish"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	addr    string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve report previews for Job Pulse",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "job-pulse.yaml", "Path to the report settings file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "Listen address, SERVER_HOST and SERVER_PORT by default")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := settings.Validate(true); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	manager := metrics.NewManager()
	components, err := bootstrap.Build(ctx, settings, bootstrap.Options{
		Simulate: true,
		Metrics:  manager,
	})
	if err != nil {
		return fmt.Errorf("failed to build publisher: %w", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close history database")
		}
	}()

	logger.Info().Msgf("Settings found at `%s` successfully loaded.", cfgPath)
	logger.Info().Msgf("Report `%s` reads the following sources:", settings.Title)
	for _, spec := range settings.Sources {
		logger.Info().Msgf("Tag: `%s`, Kind: `%s`", spec.Tag, spec.Kind)
	}

	if addr == "" {
		host := os.Getenv("SERVER_HOST")
		port := os.Getenv("SERVER_PORT")
		if host == "" || port == "" {
			return fmt.Errorf("missing server address: pass --addr or set SERVER_HOST and SERVER_PORT")
		}
		addr = net.JoinHostPort(host, port)
	}

	// previews carry no timestamp so repeated requests render the same body
	request := components.Request(time.Time{}, settings.AuthorOrDefault(), true)
	deps := server.Dependencies{
		Previewer: publish.NewPreview(components.Publisher, request),
		Metrics:   manager.Handler(),
	}
	if components.History != nil {
		deps.History = components.History
	}

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr:         addr,
		Dependencies: deps,
	})

	logger.Info().Msgf("starting server on %s", addr)
	return webAPI.Start()
}
