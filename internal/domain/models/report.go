package models

import "time"

// ReportStatus is the lifecycle state of a report job.
type ReportStatus string

const (
	ReportRunning  ReportStatus = "Running"
	ReportComplete ReportStatus = "Complete"
	ReportError    ReportStatus = "Error"
)

// Terminal reports whether no further transition is allowed.
func (s ReportStatus) Terminal() bool {
	return s == ReportComplete || s == ReportError
}

// ReportJob tracks one asynchronous report run.
type ReportJob struct {
	ID               string       `json:"report_id"`
	Status           ReportStatus `json:"status"`
	CreatedAt        time.Time    `json:"created_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	Message          string       `json:"message,omitempty"`
	ArtifactLocation string       `json:"artifact_location,omitempty"`
}

// WindowUsage is the uptime/downtime split of the business-open time in one window.
// With Samples > 0, Uptime + Downtime == Total; with no samples both are zero.
type WindowUsage struct {
	Total    time.Duration
	Uptime   time.Duration
	Downtime time.Duration
	// Samples is the number of observations that fell on open time.
	Samples int
}

// StoreUsage holds one store's results for the hour, day and week windows.
type StoreUsage struct {
	StoreID string
	Hour    WindowUsage
	Day     WindowUsage
	Week    WindowUsage
}

// ReportRow is one artifact line: minutes for the hour window, hours otherwise.
type ReportRow struct {
	StoreID          string  `json:"store_id"`
	UptimeLastHour   float64 `json:"uptime_last_hour"`
	UptimeLastDay    float64 `json:"uptime_last_day"`
	UptimeLastWeek   float64 `json:"uptime_last_week"`
	DowntimeLastHour float64 `json:"downtime_last_hour"`
	DowntimeLastDay  float64 `json:"downtime_last_day"`
	DowntimeLastWeek float64 `json:"downtime_last_week"`
}

// ReportEvent is published on every terminal transition.
type ReportEvent struct {
	ReportID         string       `json:"report_id"`
	Status           ReportStatus `json:"status"`
	ArtifactLocation string       `json:"artifact_location,omitempty"`
	Message          string       `json:"message,omitempty"`
	Stores           int          `json:"stores"`
	Skipped          int          `json:"skipped"`
	OccurredAt       time.Time    `json:"occurred_at"`
}

// ReportTask is the payload handed from the trigger path to a worker.
type ReportTask struct {
	ReportID string     `json:"report_id"`
	Now      *time.Time `json:"now,omitempty"`
}
