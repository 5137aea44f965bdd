package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	ts := time.Now()
	original := Record{
		ID:                  "r1",
		Data:                map[string]any{"nested": map[string]any{"k": "v"}, "list": []any{1.0, map[string]any{"x": 1.0}}},
		Metadata:            map[string]any{"source": "test"},
		Processed:           true,
		ProcessingTimestamp: &ts,
		ProcessingResult:    &ProcessingResult{Status: ProcessingStatusSuccess},
	}

	clone := original.Clone()
	clone.Data["nested"].(map[string]any)["k"] = "changed"
	clone.Data["list"].([]any)[1].(map[string]any)["x"] = 2.0
	clone.Metadata["source"] = "other"
	clone.ProcessingResult.Status = "changed"
	*clone.ProcessingTimestamp = ts.Add(time.Hour)

	require.Equal(t, "v", original.Data["nested"].(map[string]any)["k"])
	require.Equal(t, 1.0, original.Data["list"].([]any)[1].(map[string]any)["x"])
	require.Equal(t, "test", original.Metadata["source"])
	require.Equal(t, ProcessingStatusSuccess, original.ProcessingResult.Status)
	require.Equal(t, ts, *original.ProcessingTimestamp)
}

func TestCloneObjectNil(t *testing.T) {
	require.Nil(t, CloneObject(nil))
	require.NotNil(t, CloneObject(map[string]any{}))
}
