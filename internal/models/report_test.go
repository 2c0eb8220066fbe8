package models

import (
	"encoding/json"
	"testing"

	decimal "github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestReportEncodesHeterogeneousEntries(t *testing.T) {
	report := Report{
		FromDate: "2024-01-01T00:00:00",
		ToDate:   "2024-01-02T00:00:00",
		Bucket:   "daily",
		Entries: []Entry{
			UsageRecord{
				ProjectID: "p1",
				User:      3,
				Username:  "alice",
				CPU:       NewQuantity(decimal.RequireFromString("12.50")),
				Volume:    NewQuantity(decimal.Zero),
				FromDate:  "2024-01-01T00:00:00",
				ToDate:    "2024-01-02T00:00:00",
			},
			StorageRecord{
				ProjectID: "p1",
				Image:     NewQuantity(decimal.NewFromInt(48)),
				FromDate:  "2024-01-01T00:00:00",
				ToDate:    "2024-01-02T00:00:00",
			},
		},
	}

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded struct {
		Bucket  string           `json:"bucket"`
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "daily", decoded.Bucket)
	require.Len(t, decoded.Entries, 2)

	usage := decoded.Entries[0]
	require.Equal(t, "alice", usage["username"])
	require.Equal(t, 12.5, usage["cpu"])
	require.Equal(t, float64(3), usage["user"])

	storage := decoded.Entries[1]
	require.Contains(t, storage, "user")
	require.Nil(t, storage["user"])
	require.Equal(t, float64(48), storage["image"])
}

func TestEntryBounds(t *testing.T) {
	var e Entry = StorageRecord{FromDate: "a", ToDate: "b"}
	from, to := e.Bounds()
	require.Equal(t, "a", from)
	require.Equal(t, "b", to)
}
