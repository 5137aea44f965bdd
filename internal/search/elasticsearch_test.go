package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"example.com/backstage/services/ingest/internal/models"
)

func TestRecordDocument(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	processed := created.Add(time.Minute)

	doc := RecordDocument(models.Record{
		ID:                  "rec-1",
		Timestamp:           created,
		Data:                map[string]any{"sensor": "temperature", "value": 25.5},
		Metadata:            map[string]any{"source": "test"},
		Processed:           true,
		ProcessingTimestamp: &processed,
		ProcessingResult:    &models.ProcessingResult{Status: models.ProcessingStatusSuccess},
	})

	assert.Equal(t, "rec-1", doc["id"])
	assert.Equal(t, created, doc["timestamp"])
	assert.Equal(t, true, doc["processed"])
	assert.Equal(t, processed, doc["processing_timestamp"])
	assert.Equal(t, "success", doc["processing_status"])
	assert.Equal(t, "temperature", doc["data:sensor"])
	assert.Equal(t, 25.5, doc["data:value"])
	assert.Equal(t, "test", doc["metadata:source"])
}

func TestRecordDocumentUnprocessed(t *testing.T) {
	doc := RecordDocument(models.Record{ID: "rec-2", Data: map[string]any{}})

	assert.Equal(t, false, doc["processed"])
	assert.NotContains(t, doc, "processing_timestamp")
	assert.NotContains(t, doc, "processing_status")
}
