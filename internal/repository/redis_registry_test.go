package repository

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

func integrationRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("STOREMONITOR_REDIS_ADDR")
	if addr == "" {
		t.Skip("set STOREMONITOR_REDIS_ADDR to run Redis integration tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRegistryLifecycle(t *testing.T) {
	client := integrationRedis(t)
	ctx := context.Background()
	prefix := "storemonitor:test:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	r := NewRedisReportRegistry(client, prefix, time.Minute)
	t.Cleanup(func() { client.Del(context.Background(), r.key("r1")) })

	if err := r.Create(ctx, models.ReportJob{ID: "r1", Status: models.ReportRunning}); err != nil {
		t.Fatal(err)
	}
	if err := r.Create(ctx, models.ReportJob{ID: "r1", Status: models.ReportRunning}); err == nil {
		t.Fatal("duplicate create should fail")
	}
	if ttl := client.TTL(ctx, r.key("r1")).Val(); ttl <= 0 {
		t.Fatalf("ttl = %v", ttl)
	}

	job, err := r.Get(ctx, "r1")
	if err != nil || job.Status != models.ReportRunning || job.CreatedAt.IsZero() {
		t.Fatalf("job = %+v, err = %v", job, err)
	}

	at := time.Date(2023, 1, 25, 18, 0, 0, 0, time.UTC)
	if err := r.Complete(ctx, "r1", "reports/report_r1.csv", at); err != nil {
		t.Fatal(err)
	}
	if err := r.Complete(ctx, "r1", "elsewhere.csv", at); !errors.Is(err, repository.ErrReportTerminal) {
		t.Fatalf("second complete err = %v, want ErrReportTerminal", err)
	}
	if err := r.Fail(ctx, "r1", "late", at); !errors.Is(err, repository.ErrReportTerminal) {
		t.Fatalf("fail after complete err = %v, want ErrReportTerminal", err)
	}

	job, err = r.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != models.ReportComplete || job.ArtifactLocation != "reports/report_r1.csv" || job.CompletedAt == nil || !job.CompletedAt.Equal(at) {
		t.Fatalf("job = %+v", job)
	}
}

func TestRedisRegistryUnknownID(t *testing.T) {
	client := integrationRedis(t)
	ctx := context.Background()
	r := NewRedisReportRegistry(client, "storemonitor:test:"+strconv.FormatInt(time.Now().UnixNano(), 10), time.Minute)

	if _, err := r.Get(ctx, "nope"); !errors.Is(err, repository.ErrReportNotFound) {
		t.Fatalf("get err = %v", err)
	}
	if err := r.Complete(ctx, "nope", "x.csv", time.Now()); !errors.Is(err, repository.ErrReportNotFound) {
		t.Fatalf("complete err = %v", err)
	}
}

func TestRedisRegistryConcurrentFinishIsWriteOnce(t *testing.T) {
	client := integrationRedis(t)
	ctx := context.Background()
	r := NewRedisReportRegistry(client, "storemonitor:test:"+strconv.FormatInt(time.Now().UnixNano(), 10), time.Minute)
	t.Cleanup(func() { client.Del(context.Background(), r.key("r1")) })
	if err := r.Create(ctx, models.ReportJob{ID: "r1", Status: models.ReportRunning}); err != nil {
		t.Fatal(err)
	}

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := r.Complete(ctx, "r1", "report_"+strconv.Itoa(i)+".csv", time.Now())
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, repository.ErrReportTerminal) {
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("%d writers completed the job, want 1", wins)
	}
}
