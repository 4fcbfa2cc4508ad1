package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/pkg/logger"

	"github.com/google/uuid"
)

// ReportService is the foreground side of the report pipeline. Neither
// method waits on report computation.
type ReportService struct {
	registry   domrepo.ReportRegistry
	artifacts  domrepo.ArtifactStore
	dispatcher Dispatcher
	log        *logger.Logger
	clock      func() time.Time
	newID      func() string
}

// NewReportService creates a ReportService with uuid report ids.
func NewReportService(registry domrepo.ReportRegistry, artifacts domrepo.ArtifactStore, dispatcher Dispatcher, log *logger.Logger) *ReportService {
	return &ReportService{
		registry:   registry,
		artifacts:  artifacts,
		dispatcher: dispatcher,
		log:        log,
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

// Trigger registers a Running job and hands it to the dispatcher. If the
// dispatcher rejects it, no worker owns the job, so it is failed here.
func (s *ReportService) Trigger(ctx context.Context) (string, error) {
	id := s.newID()
	job := models.ReportJob{ID: id, Status: models.ReportRunning, CreatedAt: s.clock().UTC()}
	if err := s.registry.Create(ctx, job); err != nil {
		return "", fmt.Errorf("register report: %w", err)
	}

	if err := s.dispatcher.Dispatch(ctx, models.ReportTask{ReportID: id}); err != nil {
		if ferr := s.registry.Fail(ctx, id, "dispatch failed: "+err.Error(), s.clock().UTC()); ferr != nil {
			s.log.Error("mark undispatched report failed", logger.String("report_id", id), logger.Error(ferr))
		}
		return "", fmt.Errorf("dispatch report: %w", err)
	}

	s.log.Info("report triggered", logger.String("report_id", id))
	return id, nil
}

// ReportView is a consistent snapshot of a job. Artifact is set only for
// Complete jobs and must be closed by the caller.
type ReportView struct {
	Job      models.ReportJob
	Artifact io.ReadCloser
}

// Query returns domrepo.ErrReportNotFound for unknown ids.
func (s *ReportService) Query(ctx context.Context, id string) (ReportView, error) {
	job, err := s.registry.Get(ctx, id)
	if err != nil {
		return ReportView{}, err
	}
	view := ReportView{Job: job}
	if job.Status != models.ReportComplete {
		return view, nil
	}
	rc, err := s.artifacts.Open(ctx, job.ArtifactLocation)
	if err != nil {
		return ReportView{}, fmt.Errorf("open artifact for %s: %w", id, err)
	}
	view.Artifact = rc
	return view, nil
}
