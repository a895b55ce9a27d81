package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	LeadStatusPending   = "pending"
	LeadStatusProcessed = "processed"
	LeadStatusDuplicate = "duplicate"
)

var (
	ErrLeadNotFound = errors.New("lead not found")

	// ErrDuplicateCorrelationID is returned by the repository when the
	// insert hits the unique constraint on correlation_id. The intake flow
	// treats it as a duplicate detected by the database, not as a failure.
	ErrDuplicateCorrelationID = errors.New("correlation id already in use")
)

// Lead is one service request received from the partner.
type Lead struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Source       string `json:"source"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category,omitempty"`
	Urgency      string `json:"urgency,omitempty"`

	// CorrelationID is the partner's idempotency token. Unique when present.
	CorrelationID string `json:"correlationId,omitempty"`
	ALAccountID   string `json:"alAccountId,omitempty"`

	Status      string     `json:"status"`
	Converted   bool       `json:"converted"`
	ReceivedAt  time.Time  `json:"receivedAt"`
	ProcessedAt *time.Time `json:"processedAt"`
}

func NewLead(userID string, receivedAt time.Time) *Lead {
	return &Lead{
		ID:         uuid.New().String(),
		UserID:     userID,
		Status:     LeadStatusPending,
		ReceivedAt: receivedAt,
	}
}

// SpeedToLeadMs is the elapsed time between receipt and the completion of
// the processing pipeline. Nil until the lead has been processed.
func (l *Lead) SpeedToLeadMs() *int64 {
	if l.ProcessedAt == nil {
		return nil
	}
	ms := l.ProcessedAt.Sub(l.ReceivedAt).Milliseconds()
	return &ms
}

type LeadFilter struct {
	Status string
	Source string
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// StateCount is one raw GROUP BY row from the stats query. State is the
// value as stored; normalization happens at the API layer.
type StateCount struct {
	State string
	Count int
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByCorrelationID(ctx context.Context, correlationID string) (*Lead, error)
	FindByUserID(ctx context.Context, userID, excludeLeadID string) ([]*Lead, error)
	MarkProcessed(ctx context.Context, id, status string, processedAt time.Time) error
	List(ctx context.Context, filter LeadFilter) ([]*Lead, int, error)
	CountByState(ctx context.Context) ([]StateCount, error)
}
