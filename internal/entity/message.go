package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	MessageChannelEmail = "email"
	MessageChannelSMS   = "sms"

	MessageDirectionInbound  = "inbound"
	MessageDirectionOutbound = "outbound"

	MessageStatusDraft     = "draft"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusFailed    = "failed"
	MessageStatusReceived  = "received"
)

var ErrMessageNotFound = errors.New("message not found")

// Message is one communication unit in a lead's thread. Only the email
// channel has a send path; sms exists in the schema for future use.
type Message struct {
	ID          string `json:"id"`
	LeadID      string `json:"leadId"`
	Channel     string `json:"channel"`
	Direction   string `json:"direction"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body"`
	HTMLBody    string `json:"htmlBody,omitempty"`
	Status      string `json:"status"`

	// ExternalID is the provider-side id assigned when the message is sent.
	ExternalID string `json:"externalId,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	SentAt      *time.Time `json:"sentAt"`
	DeliveredAt *time.Time `json:"deliveredAt"`
	ReadAt      *time.Time `json:"readAt"`
}

func NewMessage(leadID, channel, direction string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		Channel:   channel,
		Direction: direction,
		Status:    MessageStatusDraft,
		CreatedAt: time.Now().UTC(),
	}
}

// MessageCounts aggregates a lead's thread without loading it.
type MessageCounts struct {
	Total   int
	Inbound int
}

type MessageRepositoryInterface interface {
	Create(ctx context.Context, message *Message) error
	FindByID(ctx context.Context, id string) (*Message, error)
	FindByLeadID(ctx context.Context, leadID string) ([]*Message, error)
	UpdateStatus(ctx context.Context, id, status, externalID string, sentAt *time.Time) error
	CountByLeadIDs(ctx context.Context, leadIDs []string) (map[string]MessageCounts, error)
}
