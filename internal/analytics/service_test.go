package analytics

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

type fakeStore struct {
	reserved map[string]bool
	sales    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{reserved: make(map[string]bool)}
}

func (f *fakeStore) ReserveEvent(_ context.Context, _ uuid.UUID, _ conversation.Canal, eventID string) (bool, error) {
	if f.reserved[eventID] {
		return false, nil
	}
	f.reserved[eventID] = true
	return true, nil
}

func (f *fakeStore) InsertSalesIntent(context.Context, uuid.UUID, conversation.Canal, string, string, string, int, string) error {
	f.sales++
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func TestEmitQualifiedContactDedupesForLifetime(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := NewService(store, bus, logger.New("test"))

	tenantID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.EmitQualifiedContact(ctx, tenantID, conversation.CanalWhatsApp, "+15550001111", "precio"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected exactly one qualified-contact event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.QualifiedContactRecorded); !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
}

func TestEmitQualifiedContactSeparatesContacts(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := NewService(store, bus, logger.New("test"))

	tenantID := uuid.New()
	ctx := context.Background()

	if err := svc.EmitQualifiedContact(ctx, tenantID, conversation.CanalWhatsApp, "+15550001111", "precio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.EmitQualifiedContact(ctx, tenantID, conversation.CanalWhatsApp, "+15550002222", "precio"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bus.published) != 2 {
		t.Fatalf("distinct contacts must each emit, got %d events", len(bus.published))
	}
}

func TestEmitStrongLeadDedupesPerWeeklyBucket(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	svc := NewService(store, bus, logger.New("test"))

	restore := nowMillis
	defer func() { nowMillis = restore }()

	// Aligned to a bucket start so the mid-week emit stays inside it.
	base := int64(2811) * strongLeadBucketMs
	nowMillis = func() int64 { return base }

	tenantID := uuid.New()
	ctx := context.Background()

	if err := svc.EmitStrongLead(ctx, tenantID, conversation.CanalWhatsApp, "+15550001111", "pagar", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same bucket, later in the week: deduplicated.
	nowMillis = func() int64 { return base + 3*24*3600*1000 }
	if err := svc.EmitStrongLead(ctx, tenantID, conversation.CanalWhatsApp, "+15550001111", "pagar", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("same-bucket lead must not re-emit, got %d events", len(bus.published))
	}

	// Next bucket: emits again with the new bucket number.
	nowMillis = func() int64 { return base + strongLeadBucketMs }
	if err := svc.EmitStrongLead(ctx, tenantID, conversation.CanalWhatsApp, "+15550001111", "pagar", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bus.published) != 2 {
		t.Fatalf("new bucket must re-emit, got %d events", len(bus.published))
	}

	first, ok := bus.published[0].(events.StrongLeadRecorded)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	second := bus.published[1].(events.StrongLeadRecorded)
	if second.Bucket != first.Bucket+1 {
		t.Fatalf("expected consecutive buckets, got %d then %d", first.Bucket, second.Bucket)
	}
}

func TestContactHashStable(t *testing.T) {
	tenantID := uuid.New()

	a := contactHash(tenantID, "+15550001111")
	b := contactHash(tenantID, "+15550001111")
	if a != b {
		t.Fatalf("hash must be stable: %q vs %q", a, b)
	}
	if a == contactHash(tenantID, "+15550002222") {
		t.Fatalf("distinct contacts must not collide")
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(a))
	}
}
