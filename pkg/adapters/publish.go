package adapters

import (
	"github.com/de-tools/job-pulse/pkg/models/api"
	"github.com/de-tools/job-pulse/pkg/models/store"
)

func MapPublishRecordStoreToApi(r store.PublishRecord) api.PublishRecord {
	record := api.PublishRecord{
		RunID:       r.RunID,
		Title:       r.Title,
		Space:       r.Space,
		Mode:        r.Mode,
		Action:      r.Action,
		Status:      r.Status,
		PublishedAt: r.PublishedAt,
	}
	if r.DocumentID != nil {
		record.DocumentID = *r.DocumentID
	}
	if r.Version != nil {
		record.Version = *r.Version
	}
	if r.Error != nil {
		record.Error = *r.Error
	}
	return record
}

func MapPublishRecordsStoreToApi(records []store.PublishRecord) []api.PublishRecord {
	out := make([]api.PublishRecord, 0, len(records))
	for _, r := range records {
		out = append(out, MapPublishRecordStoreToApi(r))
	}
	return out
}
