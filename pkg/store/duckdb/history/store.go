package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/de-tools/job-pulse/pkg/models/store"
	"github.com/de-tools/job-pulse/pkg/store/duckdb"
)

// Store keeps one row per publish run
type Store interface {
	Record(ctx context.Context, record store.PublishRecord) error
	List(ctx context.Context, title string, limit int) ([]store.PublishRecord, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

func (s *historyStore) Record(ctx context.Context, record store.PublishRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("run id is required")
	}

	query := `
		INSERT INTO publish_history (
			run_id, title, space, mode, action, document_id, version, status, error, published_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	args := []any{
		record.RunID,
		record.Title,
		record.Space,
		record.Mode,
		record.Action,
		record.DocumentID,
		record.Version,
		record.Status,
		record.Error,
		record.PublishedAt,
	}

	if _, err := duckdb.Conn(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert publish record: %w", err)
	}
	return nil
}

// List returns the most recent runs first. An empty title lists every title.
func (s *historyStore) List(ctx context.Context, title string, limit int) ([]store.PublishRecord, error) {
	query := `
		SELECT run_id, title, space, mode, action, document_id, version, status, error, published_at
		FROM publish_history
		WHERE (? = '' OR title = ?)
		ORDER BY published_at DESC, run_id
	`
	args := []any{title, title}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := duckdb.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query publish history: %w", err)
	}
	defer rows.Close()

	var records []store.PublishRecord
	for rows.Next() {
		var (
			r          store.PublishRecord
			documentID sql.NullString
			version    sql.NullInt64
			errMsg     sql.NullString
		)
		if err := rows.Scan(
			&r.RunID,
			&r.Title,
			&r.Space,
			&r.Mode,
			&r.Action,
			&documentID,
			&version,
			&r.Status,
			&errMsg,
			&r.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan publish record: %w", err)
		}
		if documentID.Valid {
			r.DocumentID = &documentID.String
		}
		if version.Valid {
			v := int(version.Int64)
			r.Version = &v
		}
		if errMsg.Valid {
			r.Error = &errMsg.String
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publish history: %w", err)
	}
	return records, nil
}
