package usecase

import (
	"context"

	"github.com/neticdev/lead-intake/internal/infra/mail"
	"github.com/neticdev/lead-intake/internal/infra/queue"
)

// EmailSender is the outbound email transport. Send returns the provider
// message id on success. An unconfigured transport is a normal, recoverable
// state: Configured reports it, and intake proceeds without sending.
type EmailSender interface {
	Configured() bool
	Send(email mail.OutboundEmail) (string, error)
}

// EventPublisher emits lead lifecycle events for downstream consumers.
// Publishing is fire-and-forget; failures are logged, never surfaced.
type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, payload queue.LeadEventPayload) error
}
