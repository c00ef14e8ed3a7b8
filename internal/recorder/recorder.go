package recorder

import "time"

// Run status values other than an error kind.
const StatusOK = "OK"

// RunRecord is one pipeline invocation. Forecast points are never stored.
type RunRecord struct {
	ID           string        `json:"id"`
	Time         time.Time     `json:"time"`
	Ticker       string        `json:"ticker"`
	Months       int           `json:"months"`
	HorizonDays  int           `json:"horizon_days"`
	Source       string        `json:"source"`
	Observations int           `json:"observations"`
	Points       int           `json:"points"`
	Status       string        `json:"status"` // "OK" or an error kind
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordRun(run *RunRecord) error
	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]RunRecord, error)
	Close() error
}
