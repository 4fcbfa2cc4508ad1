package repository

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"
)

func TestMemoryRegistryLifecycle(t *testing.T) {
	r := NewMemoryReportRegistry()
	ctx := context.Background()

	if err := r.Create(ctx, models.ReportJob{ID: "r1", Status: models.ReportRunning}); err != nil {
		t.Fatal(err)
	}
	if err := r.Create(ctx, models.ReportJob{ID: "r1", Status: models.ReportRunning}); err == nil {
		t.Fatal("duplicate create should fail")
	}

	job, err := r.Get(ctx, "r1")
	if err != nil || job.Status != models.ReportRunning || job.CreatedAt.IsZero() {
		t.Fatalf("job = %+v, err = %v", job, err)
	}

	at := time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC)
	if err := r.Complete(ctx, "r1", "reports/report_r1.csv", at); err != nil {
		t.Fatal(err)
	}
	job, _ = r.Get(ctx, "r1")
	if job.Status != models.ReportComplete || job.ArtifactLocation != "reports/report_r1.csv" || !job.CompletedAt.Equal(at) {
		t.Fatalf("job = %+v", job)
	}

	if err := r.Fail(ctx, "r1", "late", at); !errors.Is(err, repository.ErrReportTerminal) {
		t.Fatalf("err = %v, want ErrReportTerminal", err)
	}
	if job, _ = r.Get(ctx, "r1"); job.Status != models.ReportComplete {
		t.Fatalf("terminal state changed to %s", job.Status)
	}
}

func TestMemoryRegistryUnknownID(t *testing.T) {
	r := NewMemoryReportRegistry()
	ctx := context.Background()
	if _, err := r.Get(ctx, "nope"); !errors.Is(err, repository.ErrReportNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := r.Fail(ctx, "nope", "x", time.Now()); !errors.Is(err, repository.ErrReportNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestFileArtifactStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileArtifactStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	loc, err := s.Save(ctx, "abc", []byte("store_id\n"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(loc) != "report_abc.csv" {
		t.Fatalf("location = %s", loc)
	}

	rc, err := s.Open(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "store_id\n" {
		t.Fatalf("data = %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("leftover temp files: %v", entries)
	}

	if _, err := s.Save(ctx, "../x", nil); err == nil {
		t.Fatal("expected rejection of path-like id")
	}
	if _, err := s.Open(ctx, filepath.Join(os.TempDir(), "report_abc.csv")); err == nil {
		t.Fatal("expected rejection outside artifact dir")
	}
}
