package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/internal/services/uptime"
	"StoreMonitor/pkg/logger"
)

// GeneratorOptions tunes a report run.
type GeneratorOptions struct {
	BatchSize int
	Workers   int
	// WallClock anchors windows to the current time instead of the latest poll.
	WallClock bool
}

// ReportGenerator is the background worker for one report job. It evaluates
// every store, writes the CSV artifact and moves the job to a terminal state.
type ReportGenerator struct {
	src       domrepo.StoreDataSource
	calc      *uptime.Calculator
	registry  domrepo.ReportRegistry
	artifacts domrepo.ArtifactStore
	events    domrepo.ReportEvents
	metrics   domrepo.Metrics
	log       *logger.Logger
	opts      GeneratorOptions
	clock     func() time.Time

	// backoff between attempts to record the terminal state
	recordBackoff time.Duration
}

const recordAttempts = 5

// NewReportGenerator creates a ReportGenerator with batch and worker defaults applied.
func NewReportGenerator(
	src domrepo.StoreDataSource,
	calc *uptime.Calculator,
	registry domrepo.ReportRegistry,
	artifacts domrepo.ArtifactStore,
	events domrepo.ReportEvents,
	metrics domrepo.Metrics,
	log *logger.Logger,
	opts GeneratorOptions,
) *ReportGenerator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &ReportGenerator{
		src:       src,
		calc:      calc,
		registry:  registry,
		artifacts: artifacts,
		events:    events,
		metrics:   metrics,
		log:       log,
		opts:      opts,
		clock:     time.Now,

		recordBackoff: 200 * time.Millisecond,
	}
}

type runResult struct {
	location string
	stores   int
	skipped  int
}

// Run executes the job in task to completion. The only error it returns is a
// failure to record the terminal state; a job that is already terminal is a no-op.
func (g *ReportGenerator) Run(ctx context.Context, task models.ReportTask) error {
	log := g.log.With(logger.String("report_id", task.ReportID))

	job, err := g.registry.Get(ctx, task.ReportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", task.ReportID, err)
	}
	if job.Status.Terminal() {
		log.Warn("report already finished, skipping run", logger.String("status", string(job.Status)))
		return nil
	}

	start := g.clock()
	res, runErr := g.safeGenerate(ctx, log, task)

	at := g.clock().UTC()
	ev := models.ReportEvent{ReportID: task.ReportID, Stores: res.stores, Skipped: res.skipped, OccurredAt: at}
	if runErr != nil {
		ev.Status, ev.Message = models.ReportError, runErr.Error()
		err = g.record(ctx, log, func(ctx context.Context) error {
			return g.registry.Fail(ctx, task.ReportID, runErr.Error(), at)
		})
		g.metrics.RecordError("report_job")
		log.Error("report failed", logger.Error(runErr))
	} else {
		ev.Status, ev.ArtifactLocation = models.ReportComplete, res.location
		err = g.record(ctx, log, func(ctx context.Context) error {
			return g.registry.Complete(ctx, task.ReportID, res.location, at)
		})
		log.Info("report complete",
			logger.String("artifact", res.location),
			logger.Int("stores", res.stores),
			logger.Int("skipped", res.skipped),
			logger.Duration("elapsed", time.Since(start)))
	}
	if errors.Is(err, domrepo.ErrReportTerminal) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("record report %s state: %w", task.ReportID, err)
	}

	g.metrics.ReportFinished(ev.Status, g.clock().Sub(start))
	if perr := g.events.Publish(context.WithoutCancel(ctx), ev); perr != nil {
		g.metrics.RecordError("report_event")
		log.Warn("publish report event failed", logger.Error(perr))
	}
	return nil
}

// record writes the terminal state on a context detached from the run and
// retries transient registry failures with backoff.
func (g *ReportGenerator) record(ctx context.Context, log *logger.Logger, write func(context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	backoff := g.recordBackoff
	for attempt := 1; ; attempt++ {
		err := write(ctx)
		if err == nil || errors.Is(err, domrepo.ErrReportTerminal) || errors.Is(err, domrepo.ErrReportNotFound) {
			return err
		}
		if attempt == recordAttempts {
			return err
		}
		g.metrics.RecordError("report_record")
		log.Warn("recording report state failed, retrying",
			logger.Int("attempt", attempt),
			logger.Error(err))
		time.Sleep(backoff)
		backoff *= 2
	}
}

// safeGenerate turns a panic anywhere in the run into a job error.
func (g *ReportGenerator) safeGenerate(ctx context.Context, log *logger.Logger, task models.ReportTask) (res runResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("report run panicked",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return g.generate(ctx, log, task)
}

func (g *ReportGenerator) generate(ctx context.Context, log *logger.Logger, task models.ReportTask) (runResult, error) {
	now, err := g.referenceTime(ctx, task)
	if err != nil {
		return runResult{}, err
	}

	ids, err := g.src.ListStoreIDs(ctx)
	if err != nil {
		return runResult{}, fmt.Errorf("list stores: %w", err)
	}
	log.Info("report started", logger.Time("now", now), logger.Int("stores", len(ids)))

	rows, skipped := g.computeAll(ctx, log, ids, now)
	if err := ctx.Err(); err != nil {
		// stores skipped by the interruption must not surface as a complete report
		return runResult{stores: len(rows), skipped: len(ids) - len(rows)}, fmt.Errorf("report interrupted: %w", err)
	}
	uptime.SortRows(rows)

	var buf bytes.Buffer
	if err := uptime.WriteCSV(&buf, rows); err != nil {
		return runResult{stores: len(rows), skipped: skipped}, fmt.Errorf("encode report: %w", err)
	}
	loc, err := g.artifacts.Save(ctx, task.ReportID, buf.Bytes())
	if err != nil {
		return runResult{stores: len(rows), skipped: skipped}, fmt.Errorf("save report: %w", err)
	}
	return runResult{location: loc, stores: len(rows), skipped: skipped}, nil
}

func (g *ReportGenerator) referenceTime(ctx context.Context, task models.ReportTask) (time.Time, error) {
	if task.Now != nil {
		return task.Now.UTC(), nil
	}
	if g.opts.WallClock {
		return g.clock().UTC(), nil
	}
	now, err := g.src.LatestObservationTime(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve reference time: %w", err)
	}
	return now.UTC(), nil
}

// computeAll evaluates stores batch by batch with at most Workers in flight.
// Each store owns one slot in the result slice, so no lock guards the rows.
func (g *ReportGenerator) computeAll(ctx context.Context, log *logger.Logger, ids []string, now time.Time) ([]models.ReportRow, int) {
	rows := make([]models.ReportRow, 0, len(ids))
	var skipped int64

	for lo := 0; lo < len(ids) && ctx.Err() == nil; lo += g.opts.BatchSize {
		hi := min(lo+g.opts.BatchSize, len(ids))
		batch := ids[lo:hi]
		batchStart := time.Now()

		slots := make([]*models.ReportRow, len(batch))
		sem := make(chan struct{}, g.opts.Workers)
		var wg sync.WaitGroup
		for i, id := range batch {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, id string) {
				defer wg.Done()
				defer func() { <-sem }()
				row, ok := g.computeStore(ctx, log, id, now)
				if !ok {
					atomic.AddInt64(&skipped, 1)
					return
				}
				slots[i] = &row
			}(i, id)
		}
		wg.Wait()

		for _, r := range slots {
			if r != nil {
				rows = append(rows, *r)
			}
		}
		g.metrics.BatchProcessed(time.Since(batchStart))
		log.Debug("batch processed",
			logger.Int("done", hi),
			logger.Int("total", len(ids)),
			logger.Duration("elapsed", time.Since(batchStart)))
	}
	return rows, int(skipped)
}

// computeStore never lets one store abort the job: errors and panics skip it.
func (g *ReportGenerator) computeStore(ctx context.Context, log *logger.Logger, id string, now time.Time) (row models.ReportRow, ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("store computation panicked", logger.String("store_id", id), logger.Any("panic", r))
			ok = false
		}
		result := "ok"
		if !ok {
			result = "skipped"
		}
		g.metrics.StoreProcessed(result, time.Since(start))
	}()

	usage, err := g.calc.Compute(ctx, id, now)
	if err != nil {
		log.Warn("store skipped", logger.String("store_id", id), logger.Error(err))
		return models.ReportRow{}, false
	}
	return uptime.Row(usage), true
}
