package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StoreMonitor/internal/domain/models"
	"StoreMonitor/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

// RedisReportRegistry stores each job as a hash, so API replicas and queue
// workers share state. Terminal transitions use WATCH/MULTI to stay write-once.
type RedisReportRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisReportRegistry creates a RedisReportRegistry whose records expire after ttl.
func NewRedisReportRegistry(client *redis.Client, prefix string, ttl time.Duration) *RedisReportRegistry {
	if prefix == "" {
		prefix = "storemonitor"
	}
	return &RedisReportRegistry{client: client, prefix: prefix + ":report", ttl: ttl}
}

func (r *RedisReportRegistry) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *RedisReportRegistry) Create(ctx context.Context, job models.ReportJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	key := r.key(job.ID)
	ok, err := r.client.HSetNX(ctx, key, "status", string(job.Status)).Result()
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if !ok {
		return fmt.Errorf("report %s already exists", job.ID)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, "created_at", job.CreatedAt.UTC().Format(time.RFC3339Nano))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *RedisReportRegistry) Get(ctx context.Context, id string) (models.ReportJob, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return models.ReportJob{}, fmt.Errorf("get report: %w", err)
	}
	if len(fields) == 0 {
		return models.ReportJob{}, repository.ErrReportNotFound
	}
	return decodeJob(id, fields), nil
}

func decodeJob(id string, f map[string]string) models.ReportJob {
	job := models.ReportJob{
		ID:               id,
		Status:           models.ReportStatus(f["status"]),
		Message:          f["message"],
		ArtifactLocation: f["artifact_location"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, f["created_at"]); err == nil {
		job.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, f["completed_at"]); err == nil {
		job.CompletedAt = &ts
	}
	return job
}

func (r *RedisReportRegistry) Complete(ctx context.Context, id, location string, at time.Time) error {
	return r.finish(ctx, id, at, "status", string(models.ReportComplete), "artifact_location", location)
}

func (r *RedisReportRegistry) Fail(ctx context.Context, id, message string, at time.Time) error {
	return r.finish(ctx, id, at, "status", string(models.ReportError), "message", message)
}

func (r *RedisReportRegistry) finish(ctx context.Context, id string, at time.Time, values ...string) error {
	key := r.key(id)
	values = append(values, "completed_at", at.UTC().Format(time.RFC3339Nano))

	txf := func(tx *redis.Tx) error {
		status, err := tx.HGet(ctx, key, "status").Result()
		if errors.Is(err, redis.Nil) {
			return repository.ErrReportNotFound
		}
		if err != nil {
			return err
		}
		if models.ReportStatus(status).Terminal() {
			return repository.ErrReportTerminal
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toAny(values)...)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < 5; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("finish report %s: too much contention", id)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

var _ repository.ReportRegistry = (*RedisReportRegistry)(nil)
