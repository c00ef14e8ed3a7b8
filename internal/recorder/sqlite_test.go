package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs", "stockseer.db"))
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	runs := []RunRecord{
		{ID: "a", Time: base, Ticker: "PEP", Months: 1, HorizonDays: 30, Source: "yahoo",
			Observations: 2500, Points: 2530, Status: StatusOK, Duration: 1500 * time.Millisecond},
		{ID: "b", Time: base.Add(time.Minute), Ticker: "ZZZZ", Months: 3, HorizonDays: 90, Source: "yahoo",
			Status: "DataUnavailable", Error: "data unavailable for ZZZZ (yahoo)"},
		{ID: "c", Time: base.Add(2 * time.Minute), Ticker: "", Months: 0, Status: "InvalidParameter",
			Error: "invalid months"},
	}
	for i := range runs {
		require.NoError(t, rec.RecordRun(&runs[i]))
	}

	got, err := rec.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "DataUnavailable", got[1].Status)
	assert.Equal(t, "data unavailable for ZZZZ (yahoo)", got[1].Error)
	assert.Equal(t, 90, got[1].HorizonDays)

	all, err := rec.RecentRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "PEP", all[2].Ticker)
	assert.Equal(t, 2530, all[2].Points)
	assert.Equal(t, 1500*time.Millisecond, all[2].Duration)
	assert.True(t, all[2].Time.Equal(base))
}

func TestSQLiteRecorder_DuplicateID(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "stockseer.db"))
	require.NoError(t, err)
	defer rec.Close()

	run := &RunRecord{ID: "dup", Ticker: "MSFT", Status: StatusOK}
	require.NoError(t, rec.RecordRun(run))
	assert.Error(t, rec.RecordRun(run))
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(&RunRecord{ID: "x"}))
	runs, err := rec.RecentRuns(10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, rec.Close())
}
