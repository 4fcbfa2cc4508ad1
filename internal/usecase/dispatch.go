package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/pkg/logger"
	"StoreMonitor/pkg/queue"
)

// ReportJobType is the queue message type for report runs.
const ReportJobType = "report.generate"

// Dispatcher hands a freshly created job to a background worker without
// waiting for it to run.
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.ReportTask) error
}

// LocalDispatcher runs each job on its own goroutine in this process.
type LocalDispatcher struct {
	gen *ReportGenerator
	log *logger.Logger
	wg  sync.WaitGroup
}

// NewLocalDispatcher creates a LocalDispatcher running jobs through gen.
func NewLocalDispatcher(gen *ReportGenerator, log *logger.Logger) *LocalDispatcher {
	return &LocalDispatcher{gen: gen, log: log}
}

func (d *LocalDispatcher) Dispatch(ctx context.Context, task models.ReportTask) error {
	// The job outlives the request that triggered it.
	jobCtx := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.gen.Run(jobCtx, task); err != nil {
			d.log.Error("report run failed", logger.String("report_id", task.ReportID), logger.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched job finished or ctx is done.
func (d *LocalDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDispatcher publishes jobs to a shared queue for any replica to run.
type QueueDispatcher struct {
	pub queue.Publisher
}

// NewQueueDispatcher creates a QueueDispatcher publishing to pub.
func NewQueueDispatcher(pub queue.Publisher) *QueueDispatcher {
	return &QueueDispatcher{pub: pub}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, task models.ReportTask) error {
	return d.pub.Enqueue(ctx, ReportJobType, task)
}

// ReportQueueJob runs queued report tasks.
type ReportQueueJob struct {
	gen *ReportGenerator
}

// NewReportQueueJob creates the queue job that feeds tasks to gen.
func NewReportQueueJob(gen *ReportGenerator) *ReportQueueJob {
	return &ReportQueueJob{gen: gen}
}

func (j *ReportQueueJob) Name() string { return "report-generator" }
func (j *ReportQueueJob) Type() string { return ReportJobType }

func (j *ReportQueueJob) Handle(ctx context.Context, payload json.RawMessage) error {
	task, err := queue.Decode[models.ReportTask](payload)
	if err != nil {
		return err
	}
	// A started report runs to a terminal state even if the queue is stopping.
	return j.gen.Run(context.WithoutCancel(ctx), task)
}

var (
	_ Dispatcher = (*LocalDispatcher)(nil)
	_ Dispatcher = (*QueueDispatcher)(nil)
	_ queue.Job  = (*ReportQueueJob)(nil)
)
