package uptime

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

// Header is the fixed artifact column order.
var Header = []string{
	"store_id",
	"uptime_last_hour", "uptime_last_day", "uptime_last_week",
	"downtime_last_hour", "downtime_last_day", "downtime_last_week",
}

// hundredths rounds d to hundredths of unit, half away from zero.
func hundredths(d, unit time.Duration) int64 {
	n := int64(d) * 100
	u := int64(unit)
	if n < 0 {
		return -((-n + u/2) / u)
	}
	return (n + u/2) / u
}

// split rounds once: downtime is the rounded total minus the rounded uptime,
// so the pair always adds up to the rounded open duration.
func split(u models.WindowUsage, unit time.Duration) (up, down float64) {
	upH := hundredths(u.Uptime, unit)
	totalH := hundredths(u.Uptime+u.Downtime, unit)
	return float64(upH) / 100, float64(totalH-upH) / 100
}

// Row converts a store's usage to reporting units.
func Row(u models.StoreUsage) models.ReportRow {
	row := models.ReportRow{StoreID: u.StoreID}
	row.UptimeLastHour, row.DowntimeLastHour = split(u.Hour, repository.WindowHour.Unit())
	row.UptimeLastDay, row.DowntimeLastDay = split(u.Day, repository.WindowDay.Unit())
	row.UptimeLastWeek, row.DowntimeLastWeek = split(u.Week, repository.WindowWeek.Unit())
	return row
}

// SortRows orders rows by store id.
func SortRows(rows []models.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StoreID < rows[j].StoreID })
}

// WriteCSV writes the header and rows in the given order.
func WriteCSV(w io.Writer, rows []models.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.StoreID,
			formatValue(r.UptimeLastHour), formatValue(r.UptimeLastDay), formatValue(r.UptimeLastWeek),
			formatValue(r.DowntimeLastHour), formatValue(r.DowntimeLastDay), formatValue(r.DowntimeLastWeek),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.StoreID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
