package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/infra/mail"
)

// MessagingService drafts and sends the outbound messages of a lead's
// thread. Drafting has no customer-visible effect; sending is a separate,
// guarded transition out of the draft state.
type MessagingService struct {
	Messages   entity.MessageRepositoryInterface
	Sender     EmailSender
	FromEmail  string
	BookingURL string
	Log        *zap.SugaredLogger
}

func NewMessagingService(
	messages entity.MessageRepositoryInterface,
	sender EmailSender,
	fromEmail string,
	bookingURL string,
	log *zap.SugaredLogger,
) *MessagingService {
	return &MessagingService{
		Messages:   messages,
		Sender:     sender,
		FromEmail:  fromEmail,
		BookingURL: bookingURL,
		Log:        log,
	}
}

// DraftIntro composes the introductory email for a new lead and persists it
// as a draft. The body is deterministic for a given lead and user.
func (s *MessagingService) DraftIntro(ctx context.Context, lead *entity.Lead, user *entity.User) (*entity.Message, error) {
	firstName := user.FirstName
	if firstName == "" {
		firstName = "there"
	}

	category := strings.ToLower(lead.Category)
	if category == "" {
		category = "your request"
	}

	city := lead.City
	if city == "" {
		city = "your area"
	}

	bookingLink := fmt.Sprintf("%s?leadId=%s", s.BookingURL, lead.ID)

	body := fmt.Sprintf(`Hello %s,

We can help with %s in %s. And, we are available today.

Please book here: %s

Netic`, firstName, category, city, bookingLink)

	htmlBody := fmt.Sprintf(
		`<p>Hello %s,</p><p>We can help with %s in %s. And, we are available today.</p><p><a href="%s">Book your appointment</a></p><p>Netic</p>`,
		firstName, category, city, bookingLink,
	)

	message := entity.NewMessage(lead.ID, entity.MessageChannelEmail, entity.MessageDirectionOutbound)
	message.FromAddress = s.FromEmail
	message.ToAddress = user.Email
	message.Subject = "Re: " + lead.Category
	message.Body = body
	message.HTMLBody = htmlBody

	if err := s.Messages.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// Send transitions a draft to sent or failed. Guards run in order: the
// message must exist, be a draft, and be on the email channel.
func (s *MessagingService) Send(ctx context.Context, messageID string) (*entity.Message, error) {
	message, err := s.Messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if message.Status != entity.MessageStatusDraft {
		return nil, ErrNotADraft
	}
	if message.Channel != entity.MessageChannelEmail {
		return nil, ErrChannelNotSupported
	}

	externalID, err := s.Sender.Send(mail.OutboundEmail{
		From:     message.FromAddress,
		To:       message.ToAddress,
		Subject:  message.Subject,
		Body:     message.Body,
		HTMLBody: message.HTMLBody,
	})
	if err != nil {
		if updateErr := s.Messages.UpdateStatus(ctx, message.ID, entity.MessageStatusFailed, "", nil); updateErr != nil {
			s.Log.Errorw("mark message failed", "messageId", message.ID, "err", updateErr)
		}
		message.Status = entity.MessageStatusFailed
		return nil, &TechnicalError{
			Code:    "EMAIL_SEND_FAILED",
			Message: "email send failed: " + err.Error(),
		}
	}

	now := time.Now().UTC()
	if err := s.Messages.UpdateStatus(ctx, message.ID, entity.MessageStatusSent, externalID, &now); err != nil {
		return nil, err
	}

	message.Status = entity.MessageStatusSent
	message.ExternalID = externalID
	message.SentAt = &now
	return message, nil
}

// SendIntro drafts the intro message and attempts to send it right away.
// A transport failure is reported, not escalated: the draft stays persisted
// with status failed and the caller learns the email did not go out.
func (s *MessagingService) SendIntro(ctx context.Context, lead *entity.Lead, user *entity.User) (*entity.Message, bool, error) {
	message, err := s.DraftIntro(ctx, lead, user)
	if err != nil {
		return nil, false, err
	}

	sent, err := s.Send(ctx, message.ID)
	if err != nil {
		var te *TechnicalError
		if errors.As(err, &te) {
			s.Log.Warnw("intro email not sent", "leadId", lead.ID, "messageId", message.ID, "err", err)
			return message, false, nil
		}
		return message, false, err
	}

	return sent, true, nil
}

// RecordInbound stores a customer reply in the lead's thread.
func (s *MessagingService) RecordInbound(ctx context.Context, leadID, channel, fromAddress, body, subject string) (*entity.Message, error) {
	message := entity.NewMessage(leadID, channel, entity.MessageDirectionInbound)
	message.FromAddress = fromAddress
	message.ToAddress = s.FromEmail
	message.Subject = subject
	message.Body = body
	message.Status = entity.MessageStatusReceived

	if err := s.Messages.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}
