package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/usecase"
)

type MessageHandler struct {
	messaging *usecase.MessagingService
	messages  entity.MessageRepositoryInterface
	leads     entity.LeadRepositoryInterface
	users     entity.UserRepositoryInterface
	log       *zap.SugaredLogger
}

func NewMessageHandler(
	messaging *usecase.MessagingService,
	messages entity.MessageRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	users entity.UserRepositoryInterface,
	log *zap.SugaredLogger,
) *MessageHandler {
	return &MessageHandler{
		messaging: messaging,
		messages:  messages,
		leads:     leads,
		users:     users,
		log:       log,
	}
}

func (h *MessageHandler) messageID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid message ID format")
		return "", false
	}
	return id.String(), true
}

// GetByID returns one message with its lead, user and full thread.
func (h *MessageHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	message, err := h.messages.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrMessageNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Message not found")
			return
		}
		h.log.Errorw("get message", "messageId", id, "err", err)
		writeInternalError(w)
		return
	}

	lead, err := h.leads.FindByID(r.Context(), message.LeadID)
	if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
		h.log.Errorw("get message lead", "messageId", id, "err", err)
		writeInternalError(w)
		return
	}

	var user *entity.User
	if lead != nil {
		user, err = h.users.FindByID(r.Context(), lead.UserID)
		if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
			h.log.Errorw("get message user", "messageId", id, "err", err)
			writeInternalError(w)
			return
		}
	}

	thread, err := h.messages.FindByLeadID(r.Context(), message.LeadID)
	if err != nil {
		h.log.Errorw("get message thread", "messageId", id, "err", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     message,
		"lead":        lead,
		"user":        summarize(user),
		"thread":      thread,
		"threadCount": len(thread),
	})
}

// Send transitions a draft to sent. State conflicts (already sent, sms
// channel) are the client's fault and map to 400; a transport failure is
// ours and maps to 500.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	message, err := h.messaging.Send(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrMessageNotFound):
			writeErrorResponse(w, http.StatusNotFound, "Message not found")
		case usecase.IsDomainError(err):
			writeErrorResponse(w, http.StatusBadRequest, err.Error())
		case usecase.IsTechnicalError(err):
			h.log.Errorw("send message", "messageId", id, "err", err)
			writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		default:
			h.log.Errorw("send message", "messageId", id, "err", err)
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"status":  message.Status,
	})
}

// SendStatus reports the current send state without mutating anything.
func (h *MessageHandler) SendStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	message, err := h.messages.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrMessageNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Message not found")
			return
		}
		h.log.Errorw("get message status", "messageId", id, "err", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": map[string]any{
			"id":          message.ID,
			"status":      message.Status,
			"sentAt":      message.SentAt,
			"deliveredAt": message.DeliveredAt,
			"externalId":  message.ExternalID,
		},
	})
}
