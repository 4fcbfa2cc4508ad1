package repository

import (
	"context"
	"errors"
	"io"
	"time"

	"StoreMonitor/internal/domain/models"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrReportTerminal = errors.New("report already finished")
	ErrNoObservations = errors.New("no store observations available")
)

// StoreDataSource is the read side of the observation, hours and timezone datasets.
type StoreDataSource interface {
	// ListStoreIDs returns every store known to any dataset, sorted.
	ListStoreIDs(ctx context.Context) ([]string, error)
	// LatestObservationTime returns ErrNoObservations when the dataset is empty.
	LatestObservationTime(ctx context.Context) (time.Time, error)
	// GetProfile returns the stored timezone and hours, without defaults applied.
	GetProfile(ctx context.Context, storeID string) (models.StoreProfile, error)
	// GetObservations returns polls with from <= timestamp < to, in timestamp order.
	GetObservations(ctx context.Context, storeID string, from, to time.Time) ([]models.Observation, error)
	Stats(ctx context.Context) (models.DatasetStats, error)
	Health(ctx context.Context) error
}

// Dataset names one of the three ingested tables.
type Dataset string

const (
	DatasetStatus    Dataset = "store_status"
	DatasetHours     Dataset = "business_hours"
	DatasetTimezones Dataset = "store_timezones"
)

// IngestSink is the write side used by imports and live polls.
type IngestSink interface {
	Truncate(ctx context.Context, ds Dataset) error
	InsertObservations(ctx context.Context, obs []models.Observation) error
	InsertBusinessHours(ctx context.Context, rules []models.BusinessHourRule) error
	InsertTimezones(ctx context.Context, tzs []models.StoreTimezone) error
}

// StoreRepository is a data store that serves both sides.
type StoreRepository interface {
	StoreDataSource
	IngestSink
}

// ProfileInvalidator drops cached store profiles after the datasets change.
type ProfileInvalidator interface {
	InvalidateProfiles(ctx context.Context) error
}

// ReportRegistry owns report job records. Only the worker running a job
// calls Complete or Fail for it.
type ReportRegistry interface {
	Create(ctx context.Context, job models.ReportJob) error
	// Get returns ErrReportNotFound for unknown ids.
	Get(ctx context.Context, id string) (models.ReportJob, error)
	// Complete and Fail return ErrReportTerminal if the job already finished.
	Complete(ctx context.Context, id, artifactLocation string, at time.Time) error
	Fail(ctx context.Context, id, message string, at time.Time) error
}

// ArtifactStore persists finished report files.
type ArtifactStore interface {
	Save(ctx context.Context, reportID string, data []byte) (location string, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// ReportEvents announces terminal report transitions.
type ReportEvents interface {
	Publish(ctx context.Context, ev models.ReportEvent) error
}

// Metrics records report pipeline measurements.
type Metrics interface {
	ReportFinished(status models.ReportStatus, d time.Duration)
	StoreProcessed(result string, d time.Duration)
	BatchProcessed(d time.Duration)
	RowsImported(ds Dataset, n int)
	RecordError(kind string)
}
