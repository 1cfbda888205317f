package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const readBatch = 256

type parquetLoader struct{}

func NewParquetLoader() Loader {
	return &parquetLoader{}
}

func (l *parquetLoader) Load(ctx context.Context, spec domain.SourceSpec) (domain.Frame, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("open %s: %w", spec.Path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", spec.Path).Msg("failed to close parquet file")
		}
	}()

	stat, err := f.Stat()
	if err != nil {
		return domain.Frame{}, fmt.Errorf("stat %s: %w", spec.Path, err)
	}

	return ReadParquet(ctx, f, stat.Size(), spec.Columns)
}

// ReadParquetBytes reads an in-memory parquet file, e.g. an object downloaded from S3.
func ReadParquetBytes(ctx context.Context, data []byte, mapping domain.ColumnMapping) (domain.Frame, error) {
	return ReadParquet(ctx, bytes.NewReader(data), int64(len(data)), mapping)
}

// ReadParquet reads the mapped leaf columns of a flat parquet schema.
func ReadParquet(ctx context.Context, r io.ReaderAt, size int64, mapping domain.ColumnMapping) (domain.Frame, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return domain.Frame{}, fmt.Errorf("open parquet: %w", err)
	}

	var columns []string
	for _, path := range file.Schema().Columns() {
		if len(path) > 0 {
			columns = append(columns, path[len(path)-1])
		}
	}

	builder, err := NewRowBuilder(columns, mapping)
	if err != nil {
		return domain.Frame{}, err
	}

	rows := make([]parquet.Row, readBatch)
	for _, group := range file.RowGroups() {
		if err := readRowGroup(ctx, group, rows, len(columns), builder); err != nil {
			return domain.Frame{}, err
		}
	}

	return builder.Frame(), nil
}

func readRowGroup(ctx context.Context, group parquet.RowGroup, buf []parquet.Row, width int, builder *RowBuilder) error {
	rows := group.Rows()
	defer rows.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			cells := make([]any, width)
			for _, v := range row {
				if col := v.Column(); col >= 0 && col < width {
					cells[col] = parquetCell(v)
				}
			}
			builder.Add(cells)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read parquet rows: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func parquetCell(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
