package store

import "time"

// PublishRecord is one row of the publish history table
type PublishRecord struct {
	RunID       string
	Title       string
	Space       string
	Mode        string
	Action      string
	DocumentID  *string
	Version     *int
	Status      string
	Error       *string
	PublishedAt time.Time
}
