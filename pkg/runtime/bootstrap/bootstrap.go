package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/job-pulse/pkg/metrics"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/services/config"
	"github.com/de-tools/job-pulse/pkg/services/publish"
	"github.com/de-tools/job-pulse/pkg/store/duckdb"
	"github.com/de-tools/job-pulse/pkg/store/duckdb/history"
	"github.com/de-tools/job-pulse/pkg/store/source"
	sqlstore "github.com/de-tools/job-pulse/pkg/store/sql"
	"github.com/de-tools/job-pulse/pkg/store/wiki"
	"github.com/rs/zerolog"
)

type Options struct {
	// Simulate skips building the document store client and its credentials
	Simulate bool
	Metrics  *metrics.Manager
}

// Components are the wired collaborators of a publish run
type Components struct {
	Settings  *config.Settings
	Publisher *publish.Publisher
	Loader    source.Registry
	History   history.Store
	Metrics   *metrics.Manager

	db *sql.DB
}

func Build(ctx context.Context, settings *config.Settings, opts Options) (*Components, error) {
	logger := zerolog.Ctx(ctx)

	var credentials config.Registry
	if settings.CredentialsFile != "" {
		reg, err := config.NewRegistry(settings.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials file: %w", err)
		}
		credentials = reg
	}

	loader, err := NewLoader(ctx, settings.Sources, credentials)
	if err != nil {
		return nil, err
	}

	c := &Components{
		Settings: settings,
		Loader:   loader,
		Metrics:  opts.Metrics,
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewManager()
	}

	pubOpts := []publish.Option{publish.WithMetrics(c.Metrics)}

	if settings.HistoryDB != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: settings.HistoryDB})
		if err != nil {
			return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		store, err := history.NewStore(db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		c.db = db
		c.History = store
		pubOpts = append(pubOpts, publish.WithHistory(store))
	}

	var documents publish.DocumentStore
	if !opts.Simulate {
		httpCfg := wiki.DefaultHTTPConfig()
		if settings.DocumentStore.Timeout > 0 {
			httpCfg.Timeout = settings.DocumentStore.Timeout
		}
		client, err := wiki.NewClient(
			settings.DocumentStore.URL,
			wiki.NewHTTPClient(httpCfg),
			config.WikiCredentials{Registry: credentials, Profile: settings.DocumentStore.Profile},
		)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create document store client: %w", err)
		}
		documents = client
	}

	c.Publisher, err = publish.NewPublisher(loader, documents, pubOpts...)
	if err != nil {
		c.Close()
		return nil, err
	}

	logger.Debug().
		Int("sources", len(settings.Sources)).
		Bool("simulate", opts.Simulate).
		Bool("history", c.History != nil).
		Msg("components ready")
	return c, nil
}

// NewLoader registers a loader for every source kind. The S3 loader is only
// created when a source needs it, since it resolves AWS configuration.
func NewLoader(ctx context.Context, sources []domain.SourceSpec, profiles sqlstore.Profiles) (source.Registry, error) {
	registry := source.NewRegistry(map[domain.SourceKind]source.Loader{
		domain.SourceKindCSV:     source.NewCSVLoader(),
		domain.SourceKindParquet: source.NewParquetLoader(),
		domain.SourceKindSQL:     sqlstore.NewCountsLoader(sqlstore.NewOpener(profiles)),
	})

	for _, s := range sources {
		if s.Kind != domain.SourceKindS3 {
			continue
		}
		s3Loader, err := source.NewS3Loader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 loader: %w", err)
		}
		if err := registry.Register(domain.SourceKindS3, s3Loader); err != nil {
			return nil, err
		}
		break
	}
	return registry, nil
}

// Request builds a publish request from the settings
func (c *Components) Request(generatedAt time.Time, generatedBy string, simulate bool) publish.Request {
	s := c.Settings
	return publish.Request{
		Title:       s.Title,
		Space:       s.Space,
		Sources:     s.Sources,
		Baseline:    s.Baseline,
		TopN:        s.TopN,
		Simulate:    simulate,
		GeneratedAt: generatedAt,
		GeneratedBy: generatedBy,
		Timeout:     s.Timeout,
	}
}

func (c *Components) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
