package usecase

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	_ "time/tzdata"

	"StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/internal/repository"
	"StoreMonitor/internal/services/uptime"
	"StoreMonitor/pkg/logger"
	"StoreMonitor/pkg/metrics"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func clockOf(t *testing.T, s string) models.ClockTime {
	t.Helper()
	c, err := models.ParseClockTime(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

type recordingEvents struct {
	mu     sync.Mutex
	events []models.ReportEvent
}

func (r *recordingEvents) Publish(_ context.Context, ev models.ReportEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

type failingArtifacts struct{}

func (failingArtifacts) Save(context.Context, string, []byte) (string, error) {
	return "", errors.New("disk full")
}

func (failingArtifacts) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not found")
}

type fixture struct {
	store     *repository.MemoryStoreData
	registry  *repository.MemoryReportRegistry
	artifacts domrepo.ArtifactStore
	events    *recordingEvents
	gen       *ReportGenerator
}

func newFixture(t *testing.T, artifacts domrepo.ArtifactStore) *fixture {
	t.Helper()
	f := &fixture{
		store:    repository.NewMemoryStoreData(),
		registry: repository.NewMemoryReportRegistry(),
		events:   &recordingEvents{},
	}
	if artifacts == nil {
		fs, err := repository.NewFileArtifactStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		artifacts = fs
	}
	f.artifacts = artifacts

	resolver, err := uptime.NewResolver("")
	if err != nil {
		t.Fatal(err)
	}
	calc := uptime.NewCalculator(f.store, resolver)
	f.gen = NewReportGenerator(f.store, calc, f.registry, f.artifacts, f.events, metrics.Nop{}, logger.Nop(),
		GeneratorOptions{BatchSize: 2, Workers: 2})
	return f
}

// seedMonday loads a UTC store open Mon 09:00-17:00 with polls at 09, 12 and 16.
func (f *fixture) seedMonday(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := f.store.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "s", Timezone: "UTC"}}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.InsertBusinessHours(ctx, []models.BusinessHourRule{
		{StoreID: "s", DayOfWeek: 0, Start: clockOf(t, "09:00"), End: clockOf(t, "17:00")},
	}); err != nil {
		t.Fatal(err)
	}
	if err := f.store.InsertObservations(ctx, []models.Observation{
		{StoreID: "s", Status: models.StatusActive, Timestamp: mustTime(t, "2023-01-23T09:00:00Z")},
		{StoreID: "s", Status: models.StatusActive, Timestamp: mustTime(t, "2023-01-23T12:00:00Z")},
		{StoreID: "s", Status: models.StatusInactive, Timestamp: mustTime(t, "2023-01-23T16:00:00Z")},
	}); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) create(t *testing.T, id string) {
	t.Helper()
	if err := f.registry.Create(context.Background(), models.ReportJob{ID: id, Status: models.ReportRunning}); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) artifact(t *testing.T, job models.ReportJob) string {
	t.Helper()
	rc, err := f.artifacts.Open(context.Background(), job.ArtifactLocation)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestGeneratorCompletesWithSortedCSV(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	ctx := context.Background()
	// A store with only a timezone record still gets a zero row.
	if err := f.store.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "a", Timezone: "Asia/Tokyo"}}); err != nil {
		t.Fatal(err)
	}
	f.create(t, "r1")

	now := mustTime(t, "2023-01-23T17:00:00Z")
	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1", Now: &now}); err != nil {
		t.Fatal(err)
	}

	job, err := f.registry.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.ReportComplete || job.CompletedAt == nil {
		t.Fatalf("job = %+v", job)
	}

	want := strings.Join([]string{
		strings.Join(uptime.Header, ","),
		"a,0.00,0.00,0.00,0.00,0.00,0.00",
		"s,0.00,5.33,5.33,60.00,2.67,2.67",
	}, "\n") + "\n"
	if got := f.artifact(t, job); got != want {
		t.Fatalf("artifact:\n%s\nwant:\n%s", got, want)
	}

	if len(f.events.events) != 1 || f.events.events[0].Status != models.ReportComplete || f.events.events[0].Stores != 2 {
		t.Fatalf("events = %+v", f.events.events)
	}
}

func TestGeneratorDefaultsNowToLatestObservation(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	f.create(t, "r1")
	ctx := context.Background()

	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(ctx, "r1")
	// now = 16:00 and windows are half-open, so the inactive 16:00 poll is
	// excluded and 09:00-16:00 counts as fully up.
	if got := f.artifact(t, job); !strings.Contains(got, "s,0.00,7.00,7.00,0.00,0.00,0.00") {
		t.Fatalf("artifact = %s", got)
	}
}

func TestGeneratorSkipsStoreWithBadTimezone(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	ctx := context.Background()
	if err := f.store.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "bad", Timezone: "Mars/Olympus"}}); err != nil {
		t.Fatal(err)
	}
	f.create(t, "r1")

	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(ctx, "r1")
	if job.Status != models.ReportComplete {
		t.Fatalf("status = %s", job.Status)
	}
	if got := f.artifact(t, job); strings.Contains(got, "bad,") {
		t.Fatalf("skipped store present in artifact: %s", got)
	}
	if ev := f.events.events[0]; ev.Skipped != 1 || ev.Stores != 1 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestGeneratorFailsWithoutObservations(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "r1")
	ctx := context.Background()

	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(ctx, "r1")
	if job.Status != models.ReportError || !strings.Contains(job.Message, domrepo.ErrNoObservations.Error()) {
		t.Fatalf("job = %+v", job)
	}
	if job.ArtifactLocation != "" {
		t.Fatal("failed job must not expose an artifact")
	}
}

func TestGeneratorFailsWhenArtifactCannotBeSaved(t *testing.T) {
	f := newFixture(t, failingArtifacts{})
	f.seedMonday(t)
	f.create(t, "r1")
	ctx := context.Background()

	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(ctx, "r1")
	if job.Status != models.ReportError || !strings.Contains(job.Message, "disk full") {
		t.Fatalf("job = %+v", job)
	}
	if f.events.events[0].Status != models.ReportError {
		t.Fatalf("events = %+v", f.events.events)
	}
}

func TestGeneratorIgnoresFinishedJob(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	f.create(t, "r1")
	ctx := context.Background()
	if err := f.registry.Fail(ctx, "r1", "earlier", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := f.gen.Run(ctx, models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(ctx, "r1")
	if job.Status != models.ReportError || job.Message != "earlier" {
		t.Fatalf("job = %+v", job)
	}
	if len(f.events.events) != 0 {
		t.Fatal("no event expected for a skipped run")
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	ctx := context.Background()
	f.create(t, "r1")
	f.create(t, "r2")

	for _, id := range []string{"r1", "r2"} {
		if err := f.gen.Run(ctx, models.ReportTask{ReportID: id}); err != nil {
			t.Fatal(err)
		}
	}
	j1, _ := f.registry.Get(ctx, "r1")
	j2, _ := f.registry.Get(ctx, "r2")
	if f.artifact(t, j1) != f.artifact(t, j2) {
		t.Fatal("identical inputs produced different artifacts")
	}
}

type rejectingDispatcher struct{}

func (rejectingDispatcher) Dispatch(context.Context, models.ReportTask) error {
	return errors.New("queue down")
}

func TestReportServiceTriggerAndQuery(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	dispatcher := NewLocalDispatcher(f.gen, logger.Nop())
	svc := NewReportService(f.registry, f.artifacts, dispatcher, logger.Nop())
	ctx := context.Background()

	id1, err := svc.Trigger(ctx)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := svc.Trigger(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatal("report ids must be unique")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := dispatcher.Wait(waitCtx); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{id1, id2} {
		view, err := svc.Query(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if view.Job.Status != models.ReportComplete || view.Artifact == nil {
			t.Fatalf("view = %+v", view.Job)
		}
		body, _ := io.ReadAll(view.Artifact)
		view.Artifact.Close()
		if !strings.HasPrefix(string(body), "store_id,") {
			t.Fatalf("body = %s", body)
		}
	}

	if _, err := svc.Query(ctx, "missing"); !errors.Is(err, domrepo.ErrReportNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestReportServiceQueryRunningHasNoArtifact(t *testing.T) {
	f := newFixture(t, nil)
	svc := NewReportService(f.registry, f.artifacts, rejectingDispatcher{}, logger.Nop())
	f.create(t, "r1")

	view, err := svc.Query(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if view.Job.Status != models.ReportRunning || view.Artifact != nil {
		t.Fatalf("view = %+v", view)
	}
}

func TestReportServiceFailsUndispatchedJob(t *testing.T) {
	f := newFixture(t, nil)
	svc := NewReportService(f.registry, f.artifacts, rejectingDispatcher{}, logger.Nop())
	svc.newID = func() string { return "fixed" }
	ctx := context.Background()

	if _, err := svc.Trigger(ctx); err == nil {
		t.Fatal("expected dispatch error")
	}
	job, err := f.registry.Get(ctx, "fixed")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.ReportError || !strings.Contains(job.Message, "queue down") {
		t.Fatalf("job = %+v", job)
	}
}

func TestReportQueueJobRunsTask(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	f.create(t, "r1")
	job := NewReportQueueJob(f.gen)

	if job.Type() != ReportJobType {
		t.Fatalf("type = %s", job.Type())
	}
	if err := job.Handle(context.Background(), []byte(`{"report_id":"r1"}`)); err != nil {
		t.Fatal(err)
	}
	got, _ := f.registry.Get(context.Background(), "r1")
	if got.Status != models.ReportComplete {
		t.Fatalf("status = %s", got.Status)
	}
	if err := job.Handle(context.Background(), []byte(`nope`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDataImporterLoadsAndSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StatusFile, "store_id,status,timestamp_utc\n"+
		"1,active,2023-01-22 12:09:39.388884 UTC\n"+
		"1,unknown,2023-01-22 12:10:00 UTC\n"+
		"2,inactive,2023-01-22 13:00:00 UTC\n"+
		",active,2023-01-22 13:00:00 UTC\n")
	writeFile(t, dir, HoursFile, "store_id,dayOfWeek,start_time_local,end_time_local\n"+
		"1,0,00:00:00,23:59:59\n"+
		"1,9,00:00:00,23:59:59\n"+
		"2,6,22:00:00,02:00:00\n")

	store := repository.NewMemoryStoreData()
	imp := NewDataImporter(dir, 1, store, nil, metrics.Nop{}, logger.Nop())
	ctx := context.Background()

	summary, err := imp.Import(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]models.DatasetImport{}
	for _, d := range summary.Datasets {
		byName[d.Name] = d
	}
	if s := byName[string(domrepo.DatasetStatus)]; s.Loaded != 2 || s.Skipped != 2 {
		t.Fatalf("status import = %+v", s)
	}
	if h := byName[string(domrepo.DatasetHours)]; h.Loaded != 2 || h.Skipped != 1 {
		t.Fatalf("hours import = %+v", h)
	}
	if !byName[string(domrepo.DatasetTimezones)].Missing {
		t.Fatal("timezones should be reported missing")
	}

	latest, err := store.LatestObservationTime(ctx)
	if err != nil || !latest.Equal(mustTime(t, "2023-01-22T13:00:00Z")) {
		t.Fatalf("latest = %v, err = %v", latest, err)
	}

	// A second import replaces rather than appends.
	if _, err := imp.Import(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ := store.Stats(ctx)
	if st.StatusRows != 2 || st.HoursRows != 2 {
		t.Fatalf("stats after reimport = %+v", st)
	}
}

func TestDataImporterRejectsMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StatusFile, "store_id,timestamp_utc\n1,2023-01-22 12:00:00 UTC\n")
	imp := NewDataImporter(dir, 10, repository.NewMemoryStoreData(), nil, metrics.Nop{}, logger.Nop())
	if _, err := imp.Import(context.Background()); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestDiagnosticsFlagsEmptyAndPartialData(t *testing.T) {
	store := repository.NewMemoryStoreData()
	d := NewDiagnostics(store, "")
	ctx := context.Background()

	empty := d.Inspect(ctx)
	if empty.ImportStatus != ImportFailed || len(empty.Issues) != 4 {
		t.Fatalf("empty = %+v", empty)
	}

	_ = store.InsertObservations(ctx, []models.Observation{
		{StoreID: "1", Status: models.StatusActive, Timestamp: mustTime(t, "2023-01-22T12:00:00Z")},
		{StoreID: "2", Status: models.StatusInactive, Timestamp: mustTime(t, "2023-01-22T13:00:00Z")},
		{StoreID: "3", Status: models.StatusActive, Timestamp: mustTime(t, "2023-01-22T14:00:00Z")},
	})
	_ = store.InsertTimezones(ctx, []models.StoreTimezone{{StoreID: "1", Timezone: "UTC"}})

	got := d.Inspect(ctx)
	if got.ImportStatus != ImportSuccess {
		t.Fatalf("status = %s", got.ImportStatus)
	}
	wantIssues := []string{
		"No business hours records found (will assume 24/7 operation)",
		"Only 1/3 stores have timezone data",
	}
	if strings.Join(got.Issues, "|") != strings.Join(wantIssues, "|") {
		t.Fatalf("issues = %v", got.Issues)
	}
	if got.Coverage.TimezonePercentage != 33.33 {
		t.Fatalf("coverage = %+v", got.Coverage)
	}
	if got.Counts.DistinctStores != 3 || len(got.StatusDistribution) != 2 {
		t.Fatalf("counts = %+v dist = %+v", got.Counts, got.StatusDistribution)
	}
}

func TestStatusPollHandler(t *testing.T) {
	store := repository.NewMemoryStoreData()
	h := NewStatusPollHandler("store-status", store, metrics.Nop{})
	ctx := context.Background()

	if err := h.Handle(ctx, []byte(`{"store_id":"9","status":"active","timestamp_utc":"2023-01-25 18:13:22.47922 UTC"}`)); err != nil {
		t.Fatal(err)
	}
	obs, _ := store.GetObservations(ctx, "9", mustTime(t, "2023-01-25T00:00:00Z"), mustTime(t, "2023-01-26T00:00:00Z"))
	if len(obs) != 1 || obs[0].Status != models.StatusActive {
		t.Fatalf("obs = %+v", obs)
	}

	for _, bad := range []string{
		`{"store_id":"9","status":"sleeping","timestamp_utc":"2023-01-25 18:13:22 UTC"}`,
		`{"store_id":"","status":"active","timestamp_utc":"2023-01-25 18:13:22 UTC"}`,
		`{"store_id":"9","status":"active","timestamp_utc":"yesterday"}`,
		`not json`,
	} {
		if err := h.Handle(ctx, []byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

// interruptingSource honours ctx on per-store reads and cancels the run right
// after the store list was fetched, as a stopping queue would.
type interruptingSource struct {
	*repository.MemoryStoreData
	cancel context.CancelFunc
}

func (s *interruptingSource) ListStoreIDs(ctx context.Context) ([]string, error) {
	ids, err := s.MemoryStoreData.ListStoreIDs(ctx)
	s.cancel()
	return ids, err
}

func (s *interruptingSource) GetProfile(ctx context.Context, id string) (models.StoreProfile, error) {
	if err := ctx.Err(); err != nil {
		return models.StoreProfile{}, err
	}
	return s.MemoryStoreData.GetProfile(ctx, id)
}

func (s *interruptingSource) GetObservations(ctx context.Context, id string, from, to time.Time) ([]models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryStoreData.GetObservations(ctx, id, from, to)
}

func (f *fixture) generatorWith(t *testing.T, src domrepo.StoreDataSource, registry domrepo.ReportRegistry) *ReportGenerator {
	t.Helper()
	resolver, err := uptime.NewResolver("")
	if err != nil {
		t.Fatal(err)
	}
	gen := NewReportGenerator(src, uptime.NewCalculator(src, resolver), registry, f.artifacts, f.events, metrics.Nop{}, logger.Nop(),
		GeneratorOptions{BatchSize: 2, Workers: 2})
	gen.recordBackoff = time.Millisecond
	return gen
}

func TestReportQueueJobSurvivesQueueShutdown(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	f.create(t, "r1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := f.generatorWith(t, &interruptingSource{MemoryStoreData: f.store, cancel: cancel}, f.registry)

	payload := []byte(`{"report_id":"r1","now":"2023-01-23T17:00:00Z"}`)
	if err := NewReportQueueJob(gen).Handle(ctx, payload); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(context.Background(), "r1")
	if job.Status != models.ReportComplete {
		t.Fatalf("job = %+v", job)
	}
	if got := f.artifact(t, job); !strings.Contains(got, "s,0.00,5.33,5.33,60.00,2.67,2.67") {
		t.Fatalf("artifact = %q", got)
	}
}

func TestGeneratorFailsInterruptedRun(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	f.create(t, "r1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gen := f.generatorWith(t, &interruptingSource{MemoryStoreData: f.store, cancel: cancel}, f.registry)

	now := mustTime(t, "2023-01-23T17:00:00Z")
	if err := gen.Run(ctx, models.ReportTask{ReportID: "r1", Now: &now}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(context.Background(), "r1")
	if job.Status != models.ReportError || !strings.Contains(job.Message, "interrupted") {
		t.Fatalf("job = %+v", job)
	}
	if job.ArtifactLocation != "" {
		t.Fatalf("interrupted run exposed artifact %s", job.ArtifactLocation)
	}
}

// flakyRegistry fails the first completeFailures Complete calls.
type flakyRegistry struct {
	*repository.MemoryReportRegistry
	mu               sync.Mutex
	completeFailures int
	completeCalls    int
}

func (r *flakyRegistry) Complete(ctx context.Context, id, location string, at time.Time) error {
	r.mu.Lock()
	r.completeCalls++
	fail := r.completeCalls <= r.completeFailures
	r.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return r.MemoryReportRegistry.Complete(ctx, id, location, at)
}

func TestGeneratorRetriesTerminalWrite(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	reg := &flakyRegistry{MemoryReportRegistry: f.registry, completeFailures: 2}
	f.create(t, "r1")
	gen := f.generatorWith(t, f.store, reg)

	if err := gen.Run(context.Background(), models.ReportTask{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	job, _ := f.registry.Get(context.Background(), "r1")
	if job.Status != models.ReportComplete || reg.completeCalls != 3 {
		t.Fatalf("job = %+v, calls = %d", job, reg.completeCalls)
	}
}

func TestGeneratorGivesUpOnTerminalWrite(t *testing.T) {
	f := newFixture(t, nil)
	f.seedMonday(t)
	reg := &flakyRegistry{MemoryReportRegistry: f.registry, completeFailures: 100}
	f.create(t, "r1")
	gen := f.generatorWith(t, f.store, reg)

	if err := gen.Run(context.Background(), models.ReportTask{ReportID: "r1"}); err == nil {
		t.Fatal("expected error once retries are exhausted")
	}
	if reg.completeCalls != recordAttempts {
		t.Fatalf("calls = %d, want %d", reg.completeCalls, recordAttempts)
	}
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateProfiles(context.Context) error {
	c.calls++
	return nil
}

func TestDataImporterInvalidatesAfterPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StatusFile, "store_id,status,timestamp_utc\n1,active,2023-01-22 12:00:00 UTC\n")
	writeFile(t, dir, HoursFile, "store_id,start_time_local\n1,09:00\n")

	inv := &countingInvalidator{}
	imp := NewDataImporter(dir, 10, repository.NewMemoryStoreData(), inv, metrics.Nop{}, logger.Nop())
	if _, err := imp.Import(context.Background()); err == nil {
		t.Fatal("expected missing column error")
	}
	if inv.calls != 1 {
		t.Fatalf("invalidations = %d, want 1", inv.calls)
	}
}
