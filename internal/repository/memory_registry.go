package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

// MemoryReportRegistry is a lock-guarded map of report jobs. Get returns a
// copy, so readers always see a consistent record.
type MemoryReportRegistry struct {
	mu   sync.RWMutex
	jobs map[string]models.ReportJob
}

// NewMemoryReportRegistry creates an empty MemoryReportRegistry.
func NewMemoryReportRegistry() *MemoryReportRegistry {
	return &MemoryReportRegistry{jobs: make(map[string]models.ReportJob)}
}

func (r *MemoryReportRegistry) Create(_ context.Context, job models.ReportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("report %s already exists", job.ID)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *MemoryReportRegistry) Get(_ context.Context, id string) (models.ReportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ReportJob{}, repository.ErrReportNotFound
	}
	if job.CompletedAt != nil {
		at := *job.CompletedAt
		job.CompletedAt = &at
	}
	return job, nil
}

func (r *MemoryReportRegistry) Complete(_ context.Context, id, location string, at time.Time) error {
	return r.finish(id, func(job *models.ReportJob) {
		job.Status = models.ReportComplete
		job.ArtifactLocation = location
	}, at)
}

func (r *MemoryReportRegistry) Fail(_ context.Context, id, message string, at time.Time) error {
	return r.finish(id, func(job *models.ReportJob) {
		job.Status = models.ReportError
		job.Message = message
	}, at)
}

func (r *MemoryReportRegistry) finish(id string, apply func(*models.ReportJob), at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrReportNotFound
	}
	if job.Status.Terminal() {
		return repository.ErrReportTerminal
	}
	apply(&job)
	at = at.UTC()
	job.CompletedAt = &at
	r.jobs[id] = job
	return nil
}

var _ repository.ReportRegistry = (*MemoryReportRegistry)(nil)
