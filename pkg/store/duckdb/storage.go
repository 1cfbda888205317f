package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const PublishHistorySchema = `
	CREATE TABLE IF NOT EXISTS publish_history (
		run_id VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		space VARCHAR NOT NULL,
		mode VARCHAR NOT NULL,
		action VARCHAR NOT NULL,
		document_id VARCHAR NULL,
		version INTEGER NULL,
		status VARCHAR NOT NULL,
		error VARCHAR NULL,
		published_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id)
	);
`

var bootQueries = []string{
	PublishHistorySchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		bootQueries := append([]string{}, bootQueries...)

		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
