package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/de-tools/job-pulse/pkg/store/source"
	"github.com/rs/zerolog"
)

type countsLoader struct {
	opener Opener
}

// NewCountsLoader runs a source's query and maps the result columns through
// the source's column mapping.
func NewCountsLoader(opener Opener) source.Loader {
	return &countsLoader{opener: opener}
}

func (l *countsLoader) Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error) {
	logger := zerolog.Ctx(ctx)

	if spec.Query == "" {
		return domain.Frame{}, fmt.Errorf("sql source %q has no query", spec.Tag)
	}

	db, err := l.opener.Open(ctx, spec)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("open %s source %q: %w", spec.Driver, spec.Tag, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Str("source", spec.Tag).Msg("failed to close source database")
		}
	}()

	rows, err := db.QueryContext(ctx, spec.Query)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("%s counts query failed: %w", spec.Tag, err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close counts query rows")
		}
	}(rows)

	columns, err := rows.Columns()
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read columns: %w", err)
	}

	builder, err := source.NewRowBuilder(columns, spec.Columns)
	if err != nil {
		return domain.Frame{}, err
	}

	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Frame{}, fmt.Errorf("scan counts row: %w", err)
		}
		builder.Add(cells)
	}
	if err := rows.Err(); err != nil {
		return domain.Frame{}, fmt.Errorf("iterate counts rows: %w", err)
	}

	frame := builder.Frame()
	logger.Debug().
		Str("source", spec.Tag).
		Int("rows", frame.Len()).
		Int("skipped", frame.Skipped).
		Msg("loaded sql source")
	return frame, nil
}
