package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	_ "github.com/marcboeker/go-duckdb/v2"
	sf "github.com/snowflakedb/gosnowflake"
	_ "modernc.org/sqlite"
)

// Profiles resolves the key/value settings of a named credential profile
type Profiles interface {
	Values(ctx context.Context, profile string) (map[string]string, error)
}

// Opener opens a database handle for a sql source
type Opener interface {
	Open(ctx context.Context, spec domain.SourceSpec) (*sql.DB, error)
}

type opener struct {
	profiles Profiles
}

func NewOpener(profiles Profiles) Opener {
	return &opener{profiles: profiles}
}

// Open returns a handle for duckdb, sqlite, snowflake or databricks sources.
// Snowflake and Databricks sources without a DSN are configured from their
// credential profile.
func (o *opener) Open(ctx context.Context, spec domain.SourceSpec) (*sql.DB, error) {
	switch spec.Driver {
	case "duckdb", "sqlite":
		if spec.DSN == "" {
			return nil, fmt.Errorf("%s source %q requires a dsn", spec.Driver, spec.Tag)
		}
		return sql.Open(spec.Driver, spec.DSN)
	case "snowflake":
		dsn := spec.DSN
		if dsn == "" {
			values, err := o.profileValues(ctx, spec)
			if err != nil {
				return nil, err
			}
			dsn, err = sf.DSN(&sf.Config{
				Account:   values["account"],
				User:      values["user"],
				Password:  values["password"],
				Database:  values["database"],
				Schema:    values["schema"],
				Warehouse: values["warehouse"],
				Role:      values["role"],
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create snowflake DSN: %w", err)
			}
		}
		return sql.Open("snowflake", dsn)
	case "databricks":
		if spec.DSN != "" {
			return sql.Open("databricks", spec.DSN)
		}
		values, err := o.profileValues(ctx, spec)
		if err != nil {
			return nil, err
		}
		port := 443
		if raw := values["port"]; raw != "" {
			if port, err = strconv.Atoi(raw); err != nil {
				return nil, fmt.Errorf("invalid databricks port %q: %w", raw, err)
			}
		}
		connector, err := dbsql.NewConnector(
			dbsql.WithServerHostname(values["host"]),
			dbsql.WithPort(port),
			dbsql.WithHTTPPath(values["http_path"]),
			dbsql.WithAccessToken(values["token"]),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create databricks connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", spec.Driver)
	}
}

func (o *opener) profileValues(ctx context.Context, spec domain.SourceSpec) (map[string]string, error) {
	if spec.Profile == "" {
		return nil, fmt.Errorf("%s source %q requires a dsn or a credential profile", spec.Driver, spec.Tag)
	}
	if o.profiles == nil {
		return nil, fmt.Errorf("%w: no credential profiles configured", domain.ErrCredentials)
	}
	values, err := o.profiles.Values(ctx, spec.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCredentials, err)
	}
	return values, nil
}
