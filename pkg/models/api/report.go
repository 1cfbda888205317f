package api

import "time"

type Report struct {
	Title       string          `json:"title"`
	Mode        string          `json:"mode"`
	GeneratedAt *time.Time      `json:"generated_at,omitempty"`
	GeneratedBy string          `json:"generated_by,omitempty"`
	Sections    []ReportSection `json:"sections"`
}

type ReportSection struct {
	Title       string       `json:"title"`
	Kind        string       `json:"kind"`
	Columns     []string     `json:"columns,omitempty"`
	Rows        []SeriesRow  `json:"rows,omitempty"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
}

type SeriesRow struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

type Placeholder struct {
	Marker  string `json:"marker"`
	Message string `json:"message"`
}

type PublishRecord struct {
	RunID       string    `json:"run_id"`
	Title       string    `json:"title"`
	Space       string    `json:"space"`
	Mode        string    `json:"mode"`
	Action      string    `json:"action"`
	DocumentID  string    `json:"document_id,omitempty"`
	Version     int       `json:"version,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
