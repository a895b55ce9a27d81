package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RebateStatusPending   = "pending"
	RebateStatusSubmitted = "submitted"
	RebateStatusApproved  = "approved"
	RebateStatusRejected  = "rejected"

	MatchCriteriaCorrelationID = "correlation_id"
)

// DuplicateLead is the audit record for a rejected re-submission, kept for
// partner rebate reconciliation. DuplicateLeadID stays empty because no lead
// row is materialized for a duplicate attempt.
type DuplicateLead struct {
	ID              string    `json:"id"`
	OriginalLeadID  string    `json:"originalLeadId"`
	DuplicateLeadID string    `json:"duplicateLeadId,omitempty"`
	MatchCriteria   string    `json:"matchCriteria"`
	DetectedAt      time.Time `json:"detectedAt"`
	RebateClaimed   bool      `json:"rebateClaimed"`
	RebateStatus    string    `json:"rebateStatus,omitempty"`
}

func NewDuplicateLead(originalLeadID string) *DuplicateLead {
	return &DuplicateLead{
		ID:             uuid.New().String(),
		OriginalLeadID: originalLeadID,
		MatchCriteria:  MatchCriteriaCorrelationID,
		DetectedAt:     time.Now().UTC(),
		RebateClaimed:  false,
	}
}

type DuplicateFilter struct {
	Unclaimed bool
	From      *time.Time
	To        *time.Time
}

type DuplicateRepositoryInterface interface {
	Create(ctx context.Context, record *DuplicateLead) error
	ListForRebate(ctx context.Context, filter DuplicateFilter) ([]*DuplicateLead, error)
	MarkRebateClaimed(ctx context.Context, id, status string) error
}
