package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

type csvLoader struct{}

func NewCSVLoader() Loader {
	return &csvLoader{}
}

func (l *csvLoader) Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("open %s: %w", spec.Path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", spec.Path).Msg("failed to close csv file")
		}
	}()

	return ReadCSV(ctx, f, spec.Columns)
}

// ReadCSV reads a header row followed by data rows.
func ReadCSV(ctx context.Context, r io.Reader, mapping domain.ColumnMapping) (domain.Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return domain.Frame{}, fmt.Errorf("read csv header: %w", err)
	}

	builder, err := NewRowBuilder(header, mapping)
	if err != nil {
		return domain.Frame{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return domain.Frame{}, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				builder.frame.Skipped++
				continue
			}
			return domain.Frame{}, fmt.Errorf("read csv: %w", err)
		}
		builder.AddStrings(record)
	}

	return builder.Frame(), nil
}
