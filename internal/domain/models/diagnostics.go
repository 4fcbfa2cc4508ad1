package models

import "time"

// StatusCount is one row of the poll status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DatasetStats is the raw diagnostic snapshot a data source reports.
type DatasetStats struct {
	StatusRows         int64
	HoursRows          int64
	TimezoneRows       int64
	DistinctStores     int64
	StoresWithHours    int64
	StoresWithTimezone int64
	StatusDistribution []StatusCount
	Earliest           *time.Time
	Latest             *time.Time
	SampleStatus       []Observation
	SampleHours        []BusinessHourRule
	SampleTimezones    []StoreTimezone
}

// DebugData is the /debug_data response body.
type DebugData struct {
	ImportStatus       string         `json:"import_status"`
	Issues             []string       `json:"issues,omitempty"`
	Error              string         `json:"error,omitempty"`
	Counts             *DebugCounts   `json:"counts,omitempty"`
	Coverage           *DebugCoverage `json:"coverage,omitempty"`
	StatusDistribution []StatusCount  `json:"status_distribution,omitempty"`
	TimeRange          *TimeRange     `json:"time_range,omitempty"`
	Samples            *DebugSamples  `json:"samples,omitempty"`
}

type DebugCounts struct {
	StoreStatus    int64 `json:"store_status"`
	BusinessHours  int64 `json:"business_hours"`
	StoreTimezones int64 `json:"store_timezones"`
	DistinctStores int64 `json:"distinct_stores"`
}

type DebugCoverage struct {
	StoresWithBusinessHours int64   `json:"stores_with_business_hours"`
	StoresWithTimezone      int64   `json:"stores_with_timezone"`
	BusinessHoursPercentage float64 `json:"business_hours_coverage_percentage"`
	TimezonePercentage      float64 `json:"timezone_coverage_percentage"`
}

type TimeRange struct {
	Earliest *time.Time `json:"earliest_timestamp"`
	Latest   *time.Time `json:"latest_timestamp"`
}

type DebugSamples struct {
	StoreStatus    []Observation      `json:"store_status"`
	BusinessHours  []BusinessHourRule `json:"business_hours"`
	StoreTimezones []StoreTimezone    `json:"store_timezones"`
}

// ImportSummary counts what one import run loaded and skipped per dataset.
type ImportSummary struct {
	Datasets []DatasetImport `json:"datasets"`
}

type DatasetImport struct {
	Name     string `json:"name"`
	Loaded   int    `json:"loaded"`
	Skipped  int    `json:"skipped"`
	Missing  bool   `json:"missing,omitempty"`
	Duration string `json:"duration"`
}
