package commands

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/runtime/bootstrap"
	"github.com/de-tools/job-pulse/pkg/runtime/terminal/export"
	"github.com/de-tools/job-pulse/pkg/services/config"
	"github.com/de-tools/job-pulse/pkg/services/runmode"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type PublishCmd struct {
	configPath string
	simulate   bool
	test       bool
	title      string
	sources    []string
	xlsxPath   string
	bodyPath   string
	verbose    bool
	reporter   *export.Reporter
	now        func() time.Time
}

func NewPublishCmd(reporter *export.Reporter, now func() time.Time) *cobra.Command {
	pc := &PublishCmd{reporter: reporter, now: now}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Aggregate job counts and publish the report",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.configPath, "config", "", "Path to the publish settings file")
	cmd.Flags().BoolVar(&pc.simulate, "simulate", false, "Render the report without writing to the document store")
	cmd.Flags().BoolVar(&pc.test, "test", false, "Publish under a [TEST] marker title")
	cmd.Flags().StringVar(&pc.title, "title", "", "Override the document title")
	cmd.Flags().StringSliceVar(&pc.sources, "source", nil, "Only publish the given source tags (repeatable)")
	cmd.Flags().StringVar(&pc.xlsxPath, "xlsx", "", "Also export the report tables to this xlsx file")
	cmd.Flags().StringVar(&pc.bodyPath, "body", "", "Also write the rendered document body to this file")
	cmd.Flags().BoolVar(&pc.verbose, "verbose", false, "Enable debug logging")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (pc *PublishCmd) run(cmd *cobra.Command, _ []string) error {
	level := zerolog.InfoLevel
	if pc.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(cmd.ErrOrStderr()).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.LoadSettings(pc.configPath)
	if err != nil {
		return err
	}
	if pc.title != "" {
		settings.Title = pc.title
	}
	if pc.test {
		settings.Title = runmode.MarkerTitle(settings.Title)
	}
	if len(pc.sources) > 0 {
		settings.Sources, err = selectSources(settings.Sources, pc.sources)
		if err != nil {
			return err
		}
	}
	if err := settings.Validate(pc.simulate); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	components, err := bootstrap.Build(ctx, settings, bootstrap.Options{Simulate: pc.simulate})
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close history database")
		}
	}()

	req := components.Request(pc.now(), settings.AuthorOrDefault(), pc.simulate)
	result, publishErr := components.Publisher.Publish(ctx, req)

	if err := pc.reporter.Handle(result); err != nil {
		logger.Warn().Err(err).Msg("failed to print report")
	}

	if len(result.Report.Sections) > 0 {
		if pc.bodyPath != "" {
			if err := os.WriteFile(pc.bodyPath, []byte(result.Body), 0o644); err != nil {
				return fmt.Errorf("failed to write body: %w", err)
			}
		}
		if pc.xlsxPath != "" {
			if err := export.WriteXLSX(result.Report, pc.xlsxPath); err != nil {
				return fmt.Errorf("failed to export xlsx: %w", err)
			}
		}
	}

	if publishErr != nil {
		return fmt.Errorf("publish failed: %w", publishErr)
	}
	return nil
}

func selectSources(all []domain.SourceSpec, tags []string) ([]domain.SourceSpec, error) {
	var selected []domain.SourceSpec
	for _, tag := range tags {
		idx := slices.IndexFunc(all, func(s domain.SourceSpec) bool { return s.Tag == tag })
		if idx < 0 {
			return nil, fmt.Errorf("source %q is not configured", tag)
		}
		selected = append(selected, all[idx])
	}
	return selected, nil
}
