package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
	pkgch "StoreMonitor/pkg/clickhouse"
)

// StoreSchema returns the idempotent DDL for the three datasets.
func StoreSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.store_status (
			store_id String,
			status LowCardinality(String),
			timestamp_utc DateTime64(6, 'UTC')
		) ENGINE = MergeTree ORDER BY (store_id, timestamp_utc)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.business_hours (
			store_id String,
			day_of_week UInt8,
			start_time_local String,
			end_time_local String
		) ENGINE = MergeTree ORDER BY (store_id, day_of_week, start_time_local)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.store_timezones (
			store_id String,
			timezone_str String
		) ENGINE = ReplacingMergeTree ORDER BY store_id`, database),
	}
}

// ClickHouseStoreData implements repository.StoreRepository on ClickHouse.
type ClickHouseStoreData struct {
	ch     *pkgch.Client
	db     *sql.DB
	status string
	hours  string
	tz     string
}

// NewClickHouseStoreData creates the ClickHouse-backed store repository.
func NewClickHouseStoreData(ch *pkgch.Client) *ClickHouseStoreData {
	database := ch.Database()
	return &ClickHouseStoreData{
		ch:     ch,
		db:     ch.DB(),
		status: database + ".store_status",
		hours:  database + ".business_hours",
		tz:     database + ".store_timezones",
	}
}

func (s *ClickHouseStoreData) table(ds repository.Dataset) (string, error) {
	switch ds {
	case repository.DatasetStatus:
		return s.status, nil
	case repository.DatasetHours:
		return s.hours, nil
	case repository.DatasetTimezones:
		return s.tz, nil
	}
	return "", fmt.Errorf("unknown dataset %q", ds)
}

func (s *ClickHouseStoreData) ListStoreIDs(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT store_id FROM (
		SELECT store_id FROM %s
		UNION ALL SELECT store_id FROM %s
		UNION ALL SELECT store_id FROM %s
	) ORDER BY store_id`, s.status, s.hours, s.tz)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list store ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *ClickHouseStoreData) LatestObservationTime(ctx context.Context) (time.Time, error) {
	var (
		n      uint64
		latest time.Time
	)
	q := fmt.Sprintf("SELECT count(), max(timestamp_utc) FROM %s", s.status)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n, &latest); err != nil {
		return time.Time{}, fmt.Errorf("latest observation: %w", err)
	}
	if n == 0 {
		return time.Time{}, repository.ErrNoObservations
	}
	return latest.UTC(), nil
}

func (s *ClickHouseStoreData) GetProfile(ctx context.Context, storeID string) (models.StoreProfile, error) {
	p := models.StoreProfile{StoreID: storeID}

	var tz string
	q := fmt.Sprintf("SELECT timezone_str FROM %s FINAL WHERE store_id = ? LIMIT 1", s.tz)
	switch err := s.db.QueryRowContext(ctx, q, storeID).Scan(&tz); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return p, fmt.Errorf("timezone: %w", err)
	default:
		p.Timezone = &tz
	}

	q = fmt.Sprintf(`SELECT day_of_week, start_time_local, end_time_local FROM %s
		WHERE store_id = ? ORDER BY day_of_week, start_time_local`, s.hours)
	rows, err := s.db.QueryContext(ctx, q, storeID)
	if err != nil {
		return p, fmt.Errorf("business hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dow        uint8
			start, end string
		)
		if err := rows.Scan(&dow, &start, &end); err != nil {
			return p, err
		}
		r := models.BusinessHourRule{StoreID: storeID, DayOfWeek: int(dow)}
		if r.Start, err = models.ParseClockTime(start); err != nil {
			return p, fmt.Errorf("business hours: %w", err)
		}
		if r.End, err = models.ParseClockTime(end); err != nil {
			return p, fmt.Errorf("business hours: %w", err)
		}
		p.Hours = append(p.Hours, r)
	}
	return p, rows.Err()
}

func (s *ClickHouseStoreData) GetObservations(ctx context.Context, storeID string, from, to time.Time) ([]models.Observation, error) {
	q := fmt.Sprintf(`SELECT status, timestamp_utc FROM %s
		WHERE store_id = ? AND timestamp_utc >= ? AND timestamp_utc < ?
		ORDER BY timestamp_utc`, s.status)
	rows, err := s.db.QueryContext(ctx, q, storeID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("observations: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			status string
			ts     time.Time
		)
		if err := rows.Scan(&status, &ts); err != nil {
			return nil, err
		}
		out = append(out, models.Observation{StoreID: storeID, Status: models.PollStatus(status), Timestamp: ts.UTC()})
	}
	return out, rows.Err()
}

func (s *ClickHouseStoreData) count(ctx context.Context, q string) (int64, error) {
	var n uint64
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return int64(n), nil
}

func (s *ClickHouseStoreData) Stats(ctx context.Context) (models.DatasetStats, error) {
	var st models.DatasetStats
	counts := []struct {
		dst *int64
		q   string
	}{
		{&st.StatusRows, "SELECT count() FROM " + s.status},
		{&st.HoursRows, "SELECT count() FROM " + s.hours},
		{&st.TimezoneRows, "SELECT count() FROM " + s.tz},
		{&st.DistinctStores, "SELECT uniqExact(store_id) FROM " + s.status},
		{&st.StoresWithHours, "SELECT uniqExact(store_id) FROM " + s.hours},
		{&st.StoresWithTimezone, "SELECT uniqExact(store_id) FROM " + s.tz},
	}
	for _, c := range counts {
		n, err := s.count(ctx, c.q)
		if err != nil {
			return st, fmt.Errorf("stats: %w", err)
		}
		*c.dst = n
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, count() FROM "+s.status+" GROUP BY status ORDER BY status")
	if err != nil {
		return st, fmt.Errorf("status distribution: %w", err)
	}
	for rows.Next() {
		var (
			status string
			n      uint64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return st, err
		}
		st.StatusDistribution = append(st.StatusDistribution, models.StatusCount{Status: status, Count: int64(n)})
	}
	rows.Close()

	if st.StatusRows > 0 {
		var earliest, latest time.Time
		if err := s.db.QueryRowContext(ctx, "SELECT min(timestamp_utc), max(timestamp_utc) FROM "+s.status).Scan(&earliest, &latest); err != nil {
			return st, fmt.Errorf("time range: %w", err)
		}
		earliest, latest = earliest.UTC(), latest.UTC()
		st.Earliest, st.Latest = &earliest, &latest
	}

	if st.SampleStatus, err = s.sampleStatus(ctx); err != nil {
		return st, err
	}
	if st.SampleHours, err = s.sampleHours(ctx); err != nil {
		return st, err
	}
	if st.SampleTimezones, err = s.sampleTimezones(ctx); err != nil {
		return st, err
	}
	return st, nil
}

func (s *ClickHouseStoreData) sampleStatus(ctx context.Context) ([]models.Observation, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT store_id, status, timestamp_utc FROM "+s.status+" LIMIT 5")
	if err != nil {
		return nil, fmt.Errorf("sample status: %w", err)
	}
	defer rows.Close()
	var out []models.Observation
	for rows.Next() {
		var (
			o      models.Observation
			status string
		)
		if err := rows.Scan(&o.StoreID, &status, &o.Timestamp); err != nil {
			return nil, err
		}
		o.Status = models.PollStatus(status)
		o.Timestamp = o.Timestamp.UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *ClickHouseStoreData) sampleHours(ctx context.Context) ([]models.BusinessHourRule, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT store_id, day_of_week, start_time_local, end_time_local FROM "+s.hours+" LIMIT 5")
	if err != nil {
		return nil, fmt.Errorf("sample hours: %w", err)
	}
	defer rows.Close()
	var out []models.BusinessHourRule
	for rows.Next() {
		var (
			r          models.BusinessHourRule
			dow        uint8
			start, end string
		)
		if err := rows.Scan(&r.StoreID, &dow, &start, &end); err != nil {
			return nil, err
		}
		r.DayOfWeek = int(dow)
		// Samples are informational; unparsable clocks show as 00:00:00.
		r.Start, _ = models.ParseClockTime(start)
		r.End, _ = models.ParseClockTime(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStoreData) sampleTimezones(ctx context.Context) ([]models.StoreTimezone, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT store_id, timezone_str FROM "+s.tz+" LIMIT 5")
	if err != nil {
		return nil, fmt.Errorf("sample timezones: %w", err)
	}
	defer rows.Close()
	var out []models.StoreTimezone
	for rows.Next() {
		var tz models.StoreTimezone
		if err := rows.Scan(&tz.StoreID, &tz.Timezone); err != nil {
			return nil, err
		}
		out = append(out, tz)
	}
	return out, rows.Err()
}

func (s *ClickHouseStoreData) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *ClickHouseStoreData) Truncate(ctx context.Context, ds repository.Dataset) error {
	table, err := s.table(ds)
	if err != nil {
		return err
	}
	return s.ch.Truncate(ctx, table)
}

func (s *ClickHouseStoreData) InsertObservations(ctx context.Context, obs []models.Observation) error {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []any{o.StoreID, string(o.Status), o.Timestamp.UTC()})
	}
	return s.ch.InsertBatch(ctx, "INSERT INTO "+s.status+" (store_id, status, timestamp_utc)", rows)
}

func (s *ClickHouseStoreData) InsertBusinessHours(ctx context.Context, rules []models.BusinessHourRule) error {
	rows := make([][]any, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []any{r.StoreID, uint8(r.DayOfWeek), r.Start.String(), r.End.String()})
	}
	return s.ch.InsertBatch(ctx, "INSERT INTO "+s.hours+" (store_id, day_of_week, start_time_local, end_time_local)", rows)
}

func (s *ClickHouseStoreData) InsertTimezones(ctx context.Context, tzs []models.StoreTimezone) error {
	rows := make([][]any, 0, len(tzs))
	for _, tz := range tzs {
		rows = append(rows, []any{tz.StoreID, tz.Timezone})
	}
	return s.ch.InsertBatch(ctx, "INSERT INTO "+s.tz+" (store_id, timezone_str)", rows)
}

var _ repository.StoreRepository = (*ClickHouseStoreData)(nil)
