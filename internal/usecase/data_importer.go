package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/pkg/logger"
	"StoreMonitor/pkg/util"
)

// Source file names inside the data directory.
const (
	StatusFile    = "store_status.csv"
	HoursFile     = "menu_hours.csv"
	TimezonesFile = "timezones.csv"
)

// DataImporter replaces the three datasets with the CSV exports in a directory.
type DataImporter struct {
	dir         string
	batchSize   int
	sink        domrepo.IngestSink
	invalidator domrepo.ProfileInvalidator
	metrics     domrepo.Metrics
	log         *logger.Logger
}

// NewDataImporter creates a DataImporter reading CSV files from dir.
func NewDataImporter(dir string, batchSize int, sink domrepo.IngestSink, invalidator domrepo.ProfileInvalidator, metrics domrepo.Metrics, log *logger.Logger) *DataImporter {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &DataImporter{dir: dir, batchSize: batchSize, sink: sink, invalidator: invalidator, metrics: metrics, log: log}
}

// rowParser turns one CSV record into a typed value appended to the pending batch.
type rowParser func(rec map[string]string) error

type datasetSpec struct {
	ds    domrepo.Dataset
	file  string
	cols  []string
	parse func(*pending) rowParser
	flush func(context.Context, *pending) error
}

type pending struct {
	obs   []models.Observation
	hours []models.BusinessHourRule
	tzs   []models.StoreTimezone
}

func (p *pending) len() int { return len(p.obs) + len(p.hours) + len(p.tzs) }

func (p *pending) reset() {
	p.obs, p.hours, p.tzs = p.obs[:0], p.hours[:0], p.tzs[:0]
}

func (imp *DataImporter) specs() []datasetSpec {
	return []datasetSpec{
		{
			ds:   domrepo.DatasetStatus,
			file: StatusFile,
			cols: []string{"store_id", "status", "timestamp_utc"},
			parse: func(p *pending) rowParser {
				return func(rec map[string]string) error {
					obs, err := parseObservation(rec["store_id"], rec["status"], rec["timestamp_utc"])
					if err != nil {
						return err
					}
					p.obs = append(p.obs, obs)
					return nil
				}
			},
			flush: func(ctx context.Context, p *pending) error { return imp.sink.InsertObservations(ctx, p.obs) },
		},
		{
			ds:   domrepo.DatasetHours,
			file: HoursFile,
			cols: []string{"store_id", "dayOfWeek", "start_time_local", "end_time_local"},
			parse: func(p *pending) rowParser {
				return func(rec map[string]string) error {
					r, err := parseHours(rec)
					if err != nil {
						return err
					}
					p.hours = append(p.hours, r)
					return nil
				}
			},
			flush: func(ctx context.Context, p *pending) error { return imp.sink.InsertBusinessHours(ctx, p.hours) },
		},
		{
			ds:   domrepo.DatasetTimezones,
			file: TimezonesFile,
			cols: []string{"store_id", "timezone_str"},
			parse: func(p *pending) rowParser {
				return func(rec map[string]string) error {
					id, tz := strings.TrimSpace(rec["store_id"]), strings.TrimSpace(rec["timezone_str"])
					if id == "" || tz == "" {
						return errors.New("store_id and timezone_str are required")
					}
					p.tzs = append(p.tzs, models.StoreTimezone{StoreID: id, Timezone: tz})
					return nil
				}
			},
			flush: func(ctx context.Context, p *pending) error { return imp.sink.InsertTimezones(ctx, p.tzs) },
		},
	}
}

// Import loads every dataset whose file exists. A missing file leaves that
// dataset untouched; a malformed row is logged and skipped.
func (imp *DataImporter) Import(ctx context.Context) (models.ImportSummary, error) {
	imp.log.Info("data import started", logger.String("dir", imp.dir))

	var summary models.ImportSummary
	touched := false
	defer func() {
		if touched {
			imp.invalidateProfiles(ctx)
		}
	}()

	for _, spec := range imp.specs() {
		res, err := imp.importDataset(ctx, spec)
		summary.Datasets = append(summary.Datasets, res)
		if !res.Missing {
			touched = true
		}
		if err != nil {
			imp.metrics.RecordError("import")
			return summary, fmt.Errorf("import %s: %w", spec.ds, err)
		}
	}

	imp.log.Info("data import finished")
	return summary, nil
}

// invalidateProfiles drops cached profiles after any dataset file was read,
// including when the import then failed partway.
func (imp *DataImporter) invalidateProfiles(ctx context.Context) {
	if imp.invalidator == nil {
		return
	}
	if err := imp.invalidator.InvalidateProfiles(context.WithoutCancel(ctx)); err != nil {
		imp.log.Warn("profile cache invalidation failed", logger.Error(err))
	}
}

func (imp *DataImporter) importDataset(ctx context.Context, spec datasetSpec) (models.DatasetImport, error) {
	start := time.Now()
	res := models.DatasetImport{Name: string(spec.ds)}
	defer func() { res.Duration = time.Since(start).String() }()

	path := filepath.Join(imp.dir, spec.file)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		imp.log.Error("import file not found", logger.String("path", path))
		res.Missing = true
		return res, nil
	}
	if err != nil {
		return res, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header, spec.cols)
	if err != nil {
		return res, err
	}

	if err := imp.sink.Truncate(ctx, spec.ds); err != nil {
		return res, fmt.Errorf("truncate: %w", err)
	}

	var batch pending
	parse := spec.parse(&batch)
	flush := func() error {
		if batch.len() == 0 {
			return nil
		}
		n := batch.len()
		if err := spec.flush(ctx, &batch); err != nil {
			return err
		}
		res.Loaded += n
		imp.metrics.RowsImported(spec.ds, n)
		imp.log.Debug("batch imported", logger.String("dataset", string(spec.ds)), logger.Int("loaded", res.Loaded))
		batch.reset()
		return nil
	}

	rec := make(map[string]string, len(spec.cols))
	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			imp.log.Warn("unreadable row skipped", logger.String("dataset", string(spec.ds)), logger.Int("line", line), logger.Error(err))
			continue
		}
		for col, i := range index {
			if i < len(fields) {
				rec[col] = fields[i]
			} else {
				rec[col] = ""
			}
		}
		if err := parse(rec); err != nil {
			res.Skipped++
			imp.log.Warn("malformed row skipped", logger.String("dataset", string(spec.ds)), logger.Int("line", line), logger.Error(err))
			continue
		}
		if batch.len() >= imp.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}

	imp.log.Info("dataset imported",
		logger.String("dataset", string(spec.ds)),
		logger.Int("loaded", res.Loaded),
		logger.Int("skipped", res.Skipped))
	return res, nil
}

func columnIndex(header, want []string) (map[string]int, error) {
	index := make(map[string]int, len(want))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	out := make(map[string]int, len(want))
	for _, col := range want {
		i, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		out[col] = i
	}
	return out, nil
}

func parseObservation(id, status, ts string) (models.Observation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Observation{}, errors.New("store_id is required")
	}
	st := models.PollStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return models.Observation{}, fmt.Errorf("unknown status %q", status)
	}
	at, err := util.ParseUTCTimestamp(ts)
	if err != nil {
		return models.Observation{}, err
	}
	return models.Observation{StoreID: id, Status: st, Timestamp: at}, nil
}

func parseHours(rec map[string]string) (models.BusinessHourRule, error) {
	dow, err := strconv.Atoi(strings.TrimSpace(rec["dayOfWeek"]))
	if err != nil {
		return models.BusinessHourRule{}, fmt.Errorf("dayOfWeek: %w", err)
	}
	start, err := models.ParseClockTime(rec["start_time_local"])
	if err != nil {
		return models.BusinessHourRule{}, fmt.Errorf("start_time_local: %w", err)
	}
	end, err := models.ParseClockTime(rec["end_time_local"])
	if err != nil {
		return models.BusinessHourRule{}, fmt.Errorf("end_time_local: %w", err)
	}
	r := models.BusinessHourRule{StoreID: strings.TrimSpace(rec["store_id"]), DayOfWeek: dow, Start: start, End: end}
	if err := r.Validate(); err != nil {
		return models.BusinessHourRule{}, err
	}
	return r, nil
}
