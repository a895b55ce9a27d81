package usecase

import (
	"context"
	"errors"

	"github.com/neticdev/lead-intake/internal/entity"
)

// DuplicateDetector decides whether a correlation id has been seen before.
// The check runs before any lead insert so the unique constraint on
// correlation_id stays authoritative; the insert path still has to handle
// the constraint violation as the final tie-breaker under concurrency.
type DuplicateDetector struct {
	Leads      entity.LeadRepositoryInterface
	Duplicates entity.DuplicateRepositoryInterface
}

func NewDuplicateDetector(leads entity.LeadRepositoryInterface, duplicates entity.DuplicateRepositoryInterface) *DuplicateDetector {
	return &DuplicateDetector{Leads: leads, Duplicates: duplicates}
}

type DuplicateCheckResult struct {
	IsDuplicate  bool
	OriginalLead *entity.Lead
}

func (d *DuplicateDetector) Check(ctx context.Context, correlationID string) (*DuplicateCheckResult, error) {
	existing, err := d.Leads.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return &DuplicateCheckResult{IsDuplicate: false}, nil
		}
		return nil, err
	}

	return &DuplicateCheckResult{IsDuplicate: true, OriginalLead: existing}, nil
}

// RecordAttempt writes the audit record for a rejected re-submission. No
// lead row is materialized for the attempt, so DuplicateLeadID stays empty.
func (d *DuplicateDetector) RecordAttempt(ctx context.Context, originalLeadID string) (*entity.DuplicateLead, error) {
	record := entity.NewDuplicateLead(originalLeadID)
	if err := d.Duplicates.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
