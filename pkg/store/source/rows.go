package source

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// RowBuilder turns raw tabular rows into a frame using an explicit column mapping.
// Rows whose date or count cannot be parsed, or whose count is negative, are
// counted as skipped and never zero-filled.
type RowBuilder struct {
	mapping   domain.ColumnMapping
	dateIdx   int
	valueIdx  int
	sourceIdx int
	frame     domain.Frame
}

func NewRowBuilder(columns []string, mapping domain.ColumnMapping) (*RowBuilder, error) {
	if mapping.Date == "" || mapping.Value == "" {
		return nil, fmt.Errorf("column mapping requires date and value columns")
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.TrimSpace(c)] = i
	}

	b := &RowBuilder{mapping: mapping, sourceIdx: -1}

	var ok bool
	if b.dateIdx, ok = index[mapping.Date]; !ok {
		return nil, fmt.Errorf("date column %q not found", mapping.Date)
	}
	if b.valueIdx, ok = index[mapping.Value]; !ok {
		return nil, fmt.Errorf("value column %q not found", mapping.Value)
	}
	if mapping.Source != "" {
		if b.sourceIdx, ok = index[mapping.Source]; !ok {
			return nil, fmt.Errorf("source column %q not found", mapping.Source)
		}
	}

	return b, nil
}

// Add appends one row. It reports whether the row was kept.
func (b *RowBuilder) Add(cells []any) bool {
	if b.dateIdx >= len(cells) || b.valueIdx >= len(cells) {
		b.frame.Skipped++
		return false
	}

	date, err := parseDate(cells[b.dateIdx], b.mapping.Layout())
	if err != nil {
		b.frame.Skipped++
		return false
	}
	value, err := parseValue(cells[b.valueIdx])
	if err != nil {
		b.frame.Skipped++
		return false
	}

	var tag string
	if b.sourceIdx >= 0 && b.sourceIdx < len(cells) {
		tag = strings.TrimSpace(cellString(cells[b.sourceIdx]))
	}

	b.frame.Points = append(b.frame.Points, domain.DataPoint{
		Date:      domain.Day(date),
		SourceTag: tag,
		Value:     value,
	})
	return true
}

// AddStrings is a convenience for text formats such as CSV.
func (b *RowBuilder) AddStrings(record []string) bool {
	cells := make([]any, len(record))
	for i, v := range record {
		cells[i] = v
	}
	return b.Add(cells)
}

func (b *RowBuilder) Frame() domain.Frame {
	return b.frame
}

func parseDate(cell any, layout string) (time.Time, error) {
	switch v := cell.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, fmt.Errorf("zero date")
		}
		return v, nil
	case int32:
		// parquet DATE: days since the unix epoch
		return time.Unix(0, 0).UTC().AddDate(0, 0, int(v)), nil
	case nil:
		return time.Time{}, fmt.Errorf("missing date")
	}

	raw := strings.TrimSpace(cellString(cell))
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	t, err := time.Parse(layout, raw)
	if err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, raw); rfcErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
}

func parseValue(cell any) (float64, error) {
	var value float64

	switch v := cell.(type) {
	case nil:
		return 0, fmt.Errorf("missing value")
	case int64:
		value = float64(v)
	case int32:
		value = float64(v)
	case int:
		value = float64(v)
	case float64:
		value = v
	case float32:
		value = float64(v)
	default:
		raw := strings.TrimSpace(cellString(cell))
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, fmt.Errorf("parse value %q: %w", raw, err)
		}
		if d.IsNegative() {
			return 0, fmt.Errorf("negative value %s", d)
		}
		return d.InexactFloat64(), nil
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	if value < 0 {
		return 0, fmt.Errorf("negative value %v", value)
	}
	return value, nil
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
