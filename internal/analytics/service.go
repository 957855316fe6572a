package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/internal/events"
	"github.com/lrz80/chatbot-backend-sub001/platform/logger"
)

// strongLeadBucketMs is the width of the strong-lead dedup window. Buckets
// are fixed (floor of epoch milliseconds over the width), not sliding.
const strongLeadBucketMs = 7 * 24 * 3600 * 1000

// Store is the dedup ledger and sales record storage.
type Store interface {
	ReserveEvent(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, eventID string) (bool, error)
	InsertSalesIntent(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, messageID, intent string, nivel int, snippet string) error
}

// Service emits the deduplicated funnel events and the per-message sales
// record.
type Service struct {
	repo Store
	bus  events.Bus
	log  *logger.Logger
}

// NewService creates the analytics service.
func NewService(repo Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// nowMillis is the event clock; swapped in tests.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// contactHash stabilizes the contact identifier inside event ids so the raw
// phone number never doubles as a ledger key.
func contactHash(tenantID uuid.UUID, contact string) string {
	sum := sha256.Sum256([]byte(tenantID.String() + "|" + contact))
	return hex.EncodeToString(sum[:8])
}

// RecordSalesIntent stores the sales record for a commercially relevant turn.
func (s *Service) RecordSalesIntent(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, messageID, intent string, nivel int, snippet string) error {
	return s.repo.InsertSalesIntent(ctx, tenantID, canal, contact, messageID, intent, nivel, snippet)
}

// EmitQualifiedContact counts a contact as qualified at most once per
// lifetime of the (tenant, canal, contact) relationship.
func (s *Service) EmitQualifiedContact(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, intent string) error {
	eventID := "qualified_contact:" + contactHash(tenantID, contact)

	claimed, err := s.repo.ReserveEvent(ctx, tenantID, canal, eventID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.QualifiedContactRecorded{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Canal:     string(canal),
			Contact:   contact,
			Intent:    intent,
		})
	}
	return nil
}

// EmitStrongLead counts a high-interest contact at most once per fixed weekly
// bucket.
func (s *Service) EmitStrongLead(ctx context.Context, tenantID uuid.UUID, canal conversation.Canal, contact, intent string, nivel int) error {
	bucket := nowMillis() / strongLeadBucketMs
	eventID := fmt.Sprintf("strong_lead:%s:%d", contactHash(tenantID, contact), bucket)

	claimed, err := s.repo.ReserveEvent(ctx, tenantID, canal, eventID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.StrongLeadRecorded{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Canal:     string(canal),
			Contact:   contact,
			Intent:    intent,
			Nivel:     nivel,
			Bucket:    bucket,
		})
	}
	return nil
}
