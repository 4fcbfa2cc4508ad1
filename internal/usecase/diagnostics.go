package usecase

import (
	"context"
	"fmt"
	"math"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/internal/services/uptime"
)

const (
	ImportSuccess = "Success"
	ImportFailed  = "Failed"
	ImportError   = "Error"
)

// Diagnostics summarizes what the data source holds and flags gaps the
// report engine will paper over with defaults.
type Diagnostics struct {
	src       domrepo.StoreDataSource
	defaultTZ string
}

// NewDiagnostics creates a Diagnostics reporting defaultTZ as the assumed zone.
func NewDiagnostics(src domrepo.StoreDataSource, defaultTZ string) *Diagnostics {
	if defaultTZ == "" {
		defaultTZ = uptime.DefaultTimezone
	}
	return &Diagnostics{src: src, defaultTZ: defaultTZ}
}

// Inspect never fails; a data source error is reported in the body.
func (d *Diagnostics) Inspect(ctx context.Context) models.DebugData {
	st, err := d.src.Stats(ctx)
	if err != nil {
		return models.DebugData{ImportStatus: ImportError, Error: err.Error()}
	}

	out := models.DebugData{
		ImportStatus: ImportSuccess,
		Issues:       []string{},
		Counts: &models.DebugCounts{
			StoreStatus:    st.StatusRows,
			BusinessHours:  st.HoursRows,
			StoreTimezones: st.TimezoneRows,
			DistinctStores: st.DistinctStores,
		},
		Coverage: &models.DebugCoverage{
			StoresWithBusinessHours: st.StoresWithHours,
			StoresWithTimezone:      st.StoresWithTimezone,
			BusinessHoursPercentage: percentage(st.StoresWithHours, st.DistinctStores),
			TimezonePercentage:      percentage(st.StoresWithTimezone, st.DistinctStores),
		},
		StatusDistribution: st.StatusDistribution,
		TimeRange:          &models.TimeRange{Earliest: st.Earliest, Latest: st.Latest},
		Samples: &models.DebugSamples{
			StoreStatus:    nonNil(st.SampleStatus),
			BusinessHours:  nonNil(st.SampleHours),
			StoreTimezones: nonNil(st.SampleTimezones),
		},
	}
	if out.StatusDistribution == nil {
		out.StatusDistribution = []models.StatusCount{}
	}

	if st.StatusRows == 0 {
		out.ImportStatus = ImportFailed
		out.Issues = append(out.Issues, "No store status records found")
	}
	if st.DistinctStores == 0 {
		out.ImportStatus = ImportFailed
		out.Issues = append(out.Issues, "No store IDs found in status data")
	}
	if st.HoursRows == 0 {
		out.Issues = append(out.Issues, "No business hours records found (will assume 24/7 operation)")
	}
	if st.TimezoneRows == 0 {
		out.Issues = append(out.Issues, fmt.Sprintf("No timezone records found (will assume %s)", d.defaultTZ))
	}
	if st.StoresWithHours > 0 && st.StoresWithHours < st.DistinctStores {
		out.Issues = append(out.Issues, fmt.Sprintf("Only %d/%d stores have business hours", st.StoresWithHours, st.DistinctStores))
	}
	if st.StoresWithTimezone > 0 && st.StoresWithTimezone < st.DistinctStores {
		out.Issues = append(out.Issues, fmt.Sprintf("Only %d/%d stores have timezone data", st.StoresWithTimezone, st.DistinctStores))
	}
	return out
}

func percentage(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
