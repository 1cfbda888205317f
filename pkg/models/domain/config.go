package domain

import "fmt"

type SourceKind string

const (
	SourceKindCSV     SourceKind = "csv"
	SourceKindParquet SourceKind = "parquet"
	SourceKindS3      SourceKind = "s3"
	SourceKindSQL     SourceKind = "sql"
)

// SourceSpec describes where one tagged dataset comes from.
// Path is a local file for csv/parquet and an s3://bucket/key URL for s3.
// Driver, DSN, Profile and Query are used by sql sources only.
type SourceSpec struct {
	Tag     string        `mapstructure:"tag"`
	Kind    SourceKind    `mapstructure:"kind"`
	Path    string        `mapstructure:"path"`
	Driver  string        `mapstructure:"driver"`
	DSN     string        `mapstructure:"dsn"`
	Profile string        `mapstructure:"profile"`
	Query   string        `mapstructure:"query"`
	Columns ColumnMapping `mapstructure:"columns"`
}

func (s SourceSpec) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.Tag)
}
