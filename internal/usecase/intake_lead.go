package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/infra/queue"
)

// IntakeLeadUseCase is the entry point of the lead pipeline. Per request it
// validates the payload, checks the correlation id, resolves the customer,
// persists the lead and attempts the intro email, in that order. A duplicate
// never materializes a lead row; the audit record is enough.
type IntakeLeadUseCase struct {
	Leads     entity.LeadRepositoryInterface
	Matcher   *UserMatcher
	Detector  *DuplicateDetector
	Messaging *MessagingService
	Events    EventPublisher
	Log       *zap.SugaredLogger
}

func NewIntakeLeadUseCase(
	leads entity.LeadRepositoryInterface,
	matcher *UserMatcher,
	detector *DuplicateDetector,
	messaging *MessagingService,
	events EventPublisher,
	log *zap.SugaredLogger,
) *IntakeLeadUseCase {
	return &IntakeLeadUseCase{
		Leads:     leads,
		Matcher:   matcher,
		Detector:  detector,
		Messaging: messaging,
		Events:    events,
		Log:       log,
	}
}

func (uc *IntakeLeadUseCase) Execute(ctx context.Context, input AngiLeadInput) (*LeadOutput, error) {
	receivedAt := time.Now().UTC()

	if verrs := ValidateAngiLead(&input); len(verrs) > 0 {
		return nil, &InvalidPayloadError{Errors: verrs}
	}

	// Duplicate check runs before anything is written.
	check, err := uc.Detector.Check(ctx, input.CorrelationID)
	if err != nil {
		return nil, err
	}
	if check.IsDuplicate {
		return uc.handleDuplicate(ctx, check.OriginalLead, input.CorrelationID)
	}

	match, err := uc.Matcher.FindOrCreate(ctx, input.Email, input.PhoneNumber, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}

	lead := entity.NewLead(match.User.ID, receivedAt)
	lead.AddressLine1 = input.PostalAddress.AddressFirstLine
	lead.AddressLine2 = input.PostalAddress.AddressSecondLine
	lead.City = input.PostalAddress.City
	lead.State = input.PostalAddress.State
	lead.PostalCode = input.PostalAddress.PostalCode
	lead.Source = input.Source
	lead.Description = input.Description
	lead.Category = input.Category
	lead.Urgency = input.Urgency
	lead.CorrelationID = input.CorrelationID
	lead.ALAccountID = input.ALAccountID

	if err := uc.Leads.Create(ctx, lead); err != nil {
		// Lost the check-then-act race: another request inserted this
		// correlation id between our check and our insert. The constraint
		// is the final authority, so recover into the duplicate path.
		if errors.Is(err, entity.ErrDuplicateCorrelationID) {
			original, findErr := uc.Leads.FindByCorrelationID(ctx, input.CorrelationID)
			if findErr != nil {
				return nil, findErr
			}
			return uc.handleDuplicate(ctx, original, input.CorrelationID)
		}
		return nil, err
	}

	message, emailSent, err := uc.Messaging.SendIntro(ctx, lead, match.User)
	if err != nil {
		return nil, err
	}

	processedAt := time.Now().UTC()
	status := entity.LeadStatusPending
	if emailSent {
		status = entity.LeadStatusProcessed
	}
	if err := uc.Leads.MarkProcessed(ctx, lead.ID, status, processedAt); err != nil {
		return nil, err
	}
	lead.Status = status
	lead.ProcessedAt = &processedAt

	speedToLeadMs := processedAt.Sub(receivedAt).Milliseconds()

	uc.publishEvent(ctx, queue.EventLeadReceived, lead)
	if status == entity.LeadStatusProcessed {
		uc.publishEvent(ctx, queue.EventLeadProcessed, lead)
	}
	uc.Log.Infow("lead received",
		"leadId", lead.ID,
		"userId", match.User.ID,
		"newUser", match.IsNew,
		"emailSent", emailSent,
		"speedToLeadMs", speedToLeadMs,
	)

	return &LeadOutput{
		Success:       true,
		LeadID:        lead.ID,
		UserID:        match.User.ID,
		IsDuplicate:   false,
		SpeedToLeadMs: &speedToLeadMs,
		MessageID:     message.ID,
		EmailSent:     &emailSent,
	}, nil
}

// handleDuplicate records the attempt and answers with the original lead.
// No user is touched and no lead row is created for the re-submission.
func (uc *IntakeLeadUseCase) handleDuplicate(ctx context.Context, original *entity.Lead, correlationID string) (*LeadOutput, error) {
	if _, err := uc.Detector.RecordAttempt(ctx, original.ID); err != nil {
		return nil, err
	}

	uc.publishEvent(ctx, queue.EventLeadDuplicate, original)
	uc.Log.Infow("duplicate lead detected",
		"originalLeadId", original.ID,
		"correlationId", correlationID,
	)

	return &LeadOutput{
		Success:       true,
		LeadID:        original.ID,
		UserID:        original.UserID,
		IsDuplicate:   true,
		SpeedToLeadMs: nil,
	}, nil
}

func (uc *IntakeLeadUseCase) publishEvent(ctx context.Context, event string, lead *entity.Lead) {
	if uc.Events == nil {
		return
	}

	payload := queue.LeadEventPayload{
		Event:         event,
		LeadID:        lead.ID,
		UserID:        lead.UserID,
		CorrelationID: lead.CorrelationID,
		Source:        lead.Source,
		State:         lead.State,
		Status:        lead.Status,
		OccurredAt:    time.Now().UTC(),
	}

	if err := uc.Events.PublishLeadEvent(ctx, payload); err != nil {
		uc.Log.Warnw("publish lead event", "event", event, "leadId", lead.ID, "err", err)
	}
}
