package models

import "time"

// Record lifecycle event types
const (
	EventRecordIngested  = "record.ingested"
	EventRecordProcessed = "record.processed"
	EventRecordDeleted   = "record.deleted"
)

// RecordEvent describes a mutation of the record set.
// Record is nil for deletions.
type RecordEvent struct {
	Type       string    `json:"type"`
	RecordID   string    `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Record     *Record   `json:"record,omitempty"`
}
