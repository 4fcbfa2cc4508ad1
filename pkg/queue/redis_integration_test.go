package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"StoreMonitor/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func integrationQueue(t *testing.T, cfg Config) (*RedisQueue, *redis.Client) {
	t.Helper()
	addr := os.Getenv("STOREMONITOR_REDIS_ADDR")
	if addr == "" {
		t.Skip("set STOREMONITOR_REDIS_ADDR to run Redis integration tests")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	prefix := "storemonitor:test:queue:" + strconv.FormatInt(time.Now().UnixNano(), 10)
	q := NewRedisQueue(logger.Nop(), cfg, client, WithKeyPrefix(prefix))
	t.Cleanup(func() {
		client.Del(context.Background(), q.queueKey(), q.retryKey(), q.deadLetterKey())
		_ = client.Close()
	})
	return q, client
}

type funcJob struct {
	handle func(ctx context.Context, payload json.RawMessage) error
}

func (funcJob) Name() string { return "test-job" }
func (funcJob) Type() string { return "test.job" }
func (j funcJob) Handle(ctx context.Context, payload json.RawMessage) error {
	return j.handle(ctx, payload)
}

func TestRedisQueueDeliversEnqueuedMessage(t *testing.T) {
	q, _ := integrationQueue(t, Config{Workers: 2, PollTimeout: 100 * time.Millisecond})
	got := make(chan string, 1)
	q.RegisterJob(funcJob{handle: func(_ context.Context, payload json.RawMessage) error {
		p, err := Decode[reportPayload](payload)
		if err != nil {
			return err
		}
		got <- p.ReportID
		return nil
	}})

	ctx := context.Background()
	if err := q.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer q.Stop(ctx)

	if err := q.Enqueue(ctx, "test.job", reportPayload{ReportID: "r1"}); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-got:
		if id != "r1" {
			t.Fatalf("report id = %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestRedisQueueRetriesThenDeadLetters(t *testing.T) {
	q, client := integrationQueue(t, Config{RetryLimit: 1, RetryDelay: time.Hour})
	q.RegisterJob(funcJob{handle: func(context.Context, json.RawMessage) error {
		return errors.New("boom")
	}})
	ctx := context.Background()

	msg := Message{ID: "m1", Type: "test.job", Payload: json.RawMessage(`{}`)}
	q.dispatch(ctx, msg)
	members := client.ZRange(ctx, q.retryKey(), 0, -1).Val()
	if len(members) != 1 {
		t.Fatalf("retry set = %v", members)
	}
	var retried Message
	if err := json.Unmarshal([]byte(members[0]), &retried); err != nil || retried.Attempts != 1 {
		t.Fatalf("retried = %+v, err = %v", retried, err)
	}

	q.dispatch(ctx, retried)
	if n := client.LLen(ctx, q.deadLetterKey()).Val(); n != 1 {
		t.Fatalf("dlq length = %d, want 1", n)
	}
}

func TestRedisQueueRequeuesInterruptedMessage(t *testing.T) {
	q, client := integrationQueue(t, Config{RetryLimit: 3})
	q.RegisterJob(funcJob{handle: func(ctx context.Context, _ json.RawMessage) error {
		return context.Canceled
	}})
	ctx := context.Background()

	q.dispatch(ctx, Message{ID: "m1", Type: "test.job", Payload: json.RawMessage(`{}`)})
	members := client.ZRange(ctx, q.retryKey(), 0, -1).Val()
	if len(members) != 1 {
		t.Fatalf("retry set = %v", members)
	}
	var back Message
	if err := json.Unmarshal([]byte(members[0]), &back); err != nil || back.Attempts != 0 {
		t.Fatalf("requeued = %+v, err = %v", back, err)
	}
}

func TestRedisQueueMovesDueRetryOnce(t *testing.T) {
	q, client := integrationQueue(t, Config{})
	ctx := context.Background()

	data, _ := json.Marshal(Message{ID: "m1", Type: "test.job", Payload: json.RawMessage(`{}`)})
	past := float64(time.Now().Add(-time.Minute).Unix())
	if err := client.ZAdd(ctx, q.retryKey(), redis.Z{Score: past, Member: data}).Err(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.moveDueRetries(ctx)
		}()
	}
	wg.Wait()

	if n := client.LLen(ctx, q.queueKey()).Val(); n != 1 {
		t.Fatalf("queue length = %d, want exactly one requeue", n)
	}
	if n := client.ZCard(ctx, q.retryKey()).Val(); n != 0 {
		t.Fatalf("retry set still holds %d members", n)
	}
}
