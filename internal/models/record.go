package models

import "time"

// Processing outcome values
const (
	ProcessingStatusSuccess = "success"

	ProcessingMessageSuccess = "Data processed successfully"
)

// Record is a single ingested data record.
// ProcessingTimestamp and ProcessingResult are set only once Processed is true.
type Record struct {
	ID                  string            `json:"id"`
	Timestamp           time.Time         `json:"timestamp"`
	Data                map[string]any    `json:"data"`
	Processed           bool              `json:"processed"`
	Metadata            map[string]any    `json:"metadata,omitempty"`
	ProcessingTimestamp *time.Time        `json:"processingTimestamp,omitempty"`
	ProcessingResult    *ProcessingResult `json:"processingResult,omitempty"`
}

// ProcessingResult is attached to a record when it is processed
type ProcessingResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Stats aggregates record counts
type Stats struct {
	Total       int `json:"total"`
	Processed   int `json:"processed"`
	Unprocessed int `json:"unprocessed"`
}

// Clone returns a deep copy of the record so callers never share state with the store.
func (r Record) Clone() Record {
	out := r
	out.Data = CloneObject(r.Data)
	out.Metadata = CloneObject(r.Metadata)
	if r.ProcessingTimestamp != nil {
		ts := *r.ProcessingTimestamp
		out.ProcessingTimestamp = &ts
	}
	if r.ProcessingResult != nil {
		res := *r.ProcessingResult
		out.ProcessingResult = &res
	}
	return out
}

// CloneObject deep-copies a decoded JSON object. nil stays nil.
func CloneObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return t
	}
}
