package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

type stubConfig struct {
	url string
}

func (s stubConfig) GetRedisURL() string       { return s.url }
func (s stubConfig) GetRedisTLSInsecure() bool { return false }
func (s stubConfig) GetAsynqQueueName() string { return "followups" }
func (s stubConfig) GetAsynqConcurrency() int  { return 1 }

func newRedisClient(t *testing.T) *Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(stubConfig{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubConfig{}); err == nil {
		t.Fatalf("expected error for missing redis url")
	}
}

func TestEnqueueDispatchDeduplicatesSameSendTime(t *testing.T) {
	client := newRedisClient(t)

	id := uuid.New()
	at := time.Now().Add(time.Hour).Truncate(time.Second)
	ctx := context.Background()

	if err := client.EnqueueDispatch(ctx, id, at); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	// The same row at the same send time is already queued; the conflict is
	// absorbed, not surfaced.
	if err := client.EnqueueDispatch(ctx, id, at); err != nil {
		t.Fatalf("duplicate enqueue must be a no-op, got %v", err)
	}
}

func TestEnqueueDispatchReschedulesWithNewSendTime(t *testing.T) {
	client := newRedisClient(t)

	id := uuid.New()
	at := time.Now().Add(time.Hour).Truncate(time.Second)
	ctx := context.Background()

	if err := client.EnqueueDispatch(ctx, id, at); err != nil {
		t.Fatalf("first enqueue failed: %v", err)
	}

	// A rescheduled follow-up gets a distinct task id for its new send time.
	if err := client.EnqueueDispatch(ctx, id, at.Add(30*time.Minute)); err != nil {
		t.Fatalf("rescheduled enqueue failed: %v", err)
	}
}

func TestEnqueueDispatchNilClient(t *testing.T) {
	var client *Client
	if err := client.EnqueueDispatch(context.Background(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("nil client must be a no-op, got %v", err)
	}
}

func TestFollowUpDispatchPayloadRoundTrip(t *testing.T) {
	id := uuid.New().String()

	task, err := NewFollowUpDispatchTask(FollowUpDispatchPayload{ScheduledID: id})
	if err != nil {
		t.Fatalf("failed to build task: %v", err)
	}
	if task.Type() != TaskFollowUpDispatch {
		t.Fatalf("unexpected task type %q", task.Type())
	}

	payload, err := ParseFollowUpDispatchPayload(task)
	if err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload.ScheduledID != id {
		t.Fatalf("payload id mismatch: %q", payload.ScheduledID)
	}
}
