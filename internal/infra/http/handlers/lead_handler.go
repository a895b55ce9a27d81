package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/infra/http/middleware"
	"github.com/neticdev/lead-intake/internal/usecase"
)

type LeadHandler struct {
	intake      *usecase.IntakeLeadUseCase
	leads       entity.LeadRepositoryInterface
	users       entity.UserRepositoryInterface
	messages    entity.MessageRepositoryInterface
	log         *zap.SugaredLogger
	rateLimiter *RateLimiter
}

func NewLeadHandler(
	intake *usecase.IntakeLeadUseCase,
	leads entity.LeadRepositoryInterface,
	users entity.UserRepositoryInterface,
	messages entity.MessageRepositoryInterface,
	log *zap.SugaredLogger,
) *LeadHandler {
	return &LeadHandler{
		intake:      intake,
		leads:       leads,
		users:       users,
		messages:    messages,
		log:         log,
		rateLimiter: NewRateLimiter(60, time.Minute),
	}
}

// Intake receives one lead submission from Angi.
// 201 for a new lead, 200 for a duplicate replay (the partner resending is
// expected behavior, not an error), 400 with field details, 500 otherwise.
func (h *LeadHandler) Intake(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeErrorResponse(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	var input usecase.AngiLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	output, err := h.intake.Execute(r.Context(), input)
	if err != nil {
		var vErr *usecase.InvalidPayloadError
		if errors.As(err, &vErr) {
			writeValidationError(w, vErr.Fields())
			return
		}
		h.log.Errorw("lead intake", "err", err)
		writeInternalError(w)
		return
	}

	status := http.StatusCreated
	if output.IsDuplicate {
		status = http.StatusOK
		middleware.RecordLeadReceived("duplicate")
		middleware.RecordDuplicateLead()
	} else {
		middleware.RecordLeadReceived("new")
		if output.EmailSent != nil && *output.EmailSent {
			middleware.RecordIntroEmail("sent")
		} else {
			middleware.RecordIntroEmail("failed")
		}
		if output.SpeedToLeadMs != nil {
			middleware.RecordSpeedToLead(*output.SpeedToLeadMs)
		}
	}

	writeJSON(w, status, output)
}

type userSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func summarize(user *entity.User) *userSummary {
	if user == nil {
		return nil
	}
	return &userSummary{
		ID:        user.ID,
		Email:     user.Email,
		Phone:     user.Phone,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

type leadRow struct {
	*entity.Lead
	User         *userSummary `json:"user"`
	MessageCount int          `json:"messageCount"`
	HasResponse  bool         `json:"hasResponse"`
}

// List serves the dashboard table: filters, pagination, and per-row message
// counts batched over the page's lead-id set instead of a query per row.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, verrs := parseLeadFilter(r)
	if len(verrs) > 0 {
		writeValidationError(w, (&usecase.InvalidPayloadError{Errors: verrs}).Fields())
		return
	}

	leads, total, err := h.leads.List(r.Context(), filter)
	if err != nil {
		h.log.Errorw("list leads", "err", err)
		writeInternalError(w)
		return
	}

	leadIDs := make([]string, 0, len(leads))
	userIDs := make([]string, 0, len(leads))
	for _, lead := range leads {
		leadIDs = append(leadIDs, lead.ID)
		userIDs = append(userIDs, lead.UserID)
	}

	counts, err := h.messages.CountByLeadIDs(r.Context(), leadIDs)
	if err != nil {
		h.log.Errorw("count messages", "err", err)
		writeInternalError(w)
		return
	}

	users, err := h.users.FindByIDs(r.Context(), userIDs)
	if err != nil {
		h.log.Errorw("load lead users", "err", err)
		writeInternalError(w)
		return
	}

	rows := make([]leadRow, 0, len(leads))
	for _, lead := range leads {
		c := counts[lead.ID]
		rows = append(rows, leadRow{
			Lead:         lead,
			User:         summarize(users[lead.UserID]),
			MessageCount: c.Total,
			HasResponse:  c.Inbound > 0,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    rows,
		"pagination": map[string]any{
			"total":   total,
			"limit":   filter.Limit,
			"offset":  filter.Offset,
			"hasMore": filter.Offset+filter.Limit < total,
		},
	})
}

func parseLeadFilter(r *http.Request) (entity.LeadFilter, []usecase.ValidationError) {
	var verrs []usecase.ValidationError
	q := r.URL.Query()

	filter := entity.LeadFilter{
		Status: q.Get("status"),
		Source: q.Get("source"),
		UserID: q.Get("userId"),
		Limit:  50,
		Offset: 0,
	}

	switch filter.Status {
	case "", entity.LeadStatusPending, entity.LeadStatusProcessed, entity.LeadStatusDuplicate:
	default:
		verrs = append(verrs, usecase.ValidationError{Field: "status", Message: "must be pending, processed or duplicate"})
	}

	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			verrs = append(verrs, usecase.ValidationError{Field: "userId", Message: "must be a valid UUID"})
		}
	}

	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			verrs = append(verrs, usecase.ValidationError{Field: "from", Message: "must be an RFC3339 datetime"})
		} else {
			filter.From = &t
		}
	}

	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			verrs = append(verrs, usecase.ValidationError{Field: "to", Message: "must be an RFC3339 datetime"})
		} else {
			filter.To = &t
		}
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			verrs = append(verrs, usecase.ValidationError{Field: "limit", Message: "must be between 1 and 100"})
		} else {
			filter.Limit = n
		}
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			verrs = append(verrs, usecase.ValidationError{Field: "offset", Message: "must be zero or greater"})
		} else {
			filter.Offset = n
		}
	}

	return filter, verrs
}

type leadDetail struct {
	*entity.Lead
	SpeedToLeadMs *int64 `json:"speedToLeadMs"`
	MessageCount  int    `json:"messageCount"`
	InboundCount  int    `json:"inboundCount"`
	OutboundCount int    `json:"outboundCount"`
	HasResponse   bool   `json:"hasResponse"`
}

// GetByID returns one lead with its user, the full message thread in
// chronological order, and the user's other leads.
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid lead ID format")
		return
	}

	lead, err := h.leads.FindByID(r.Context(), id.String())
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.log.Errorw("get lead", "leadId", id, "err", err)
		writeInternalError(w)
		return
	}

	user, err := h.users.FindByID(r.Context(), lead.UserID)
	if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
		h.log.Errorw("get lead user", "leadId", lead.ID, "err", err)
		writeInternalError(w)
		return
	}

	thread, err := h.messages.FindByLeadID(r.Context(), lead.ID)
	if err != nil {
		h.log.Errorw("get lead thread", "leadId", lead.ID, "err", err)
		writeInternalError(w)
		return
	}

	inbound := 0
	for _, m := range thread {
		if m.Direction == entity.MessageDirectionInbound {
			inbound++
		}
	}

	otherLeads, err := h.leads.FindByUserID(r.Context(), lead.UserID, lead.ID)
	if err != nil {
		h.log.Errorw("get other leads", "leadId", lead.ID, "err", err)
		writeInternalError(w)
		return
	}
	if otherLeads == nil {
		otherLeads = []*entity.Lead{}
	}
	if thread == nil {
		thread = []*entity.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"lead": leadDetail{
				Lead:          lead,
				SpeedToLeadMs: lead.SpeedToLeadMs(),
				MessageCount:  len(thread),
				InboundCount:  inbound,
				OutboundCount: len(thread) - inbound,
				HasResponse:   inbound > 0,
			},
			"user":       summarize(user),
			"messages":   thread,
			"otherLeads": otherLeads,
		},
	})
}

// Stats aggregates lead counts by state for the heat map. State codes are
// normalized (trimmed, upper-cased) and merged here, not in SQL, so "in",
// "IN " and "In" land on the same key.
func (h *LeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.leads.CountByState(r.Context())
	if err != nil {
		h.log.Errorw("lead stats", "err", err)
		writeInternalError(w)
		return
	}

	byState := make(map[string]int)
	maxCount := 0
	totalLeads := 0

	for _, row := range counts {
		totalLeads += row.Count

		state := strings.ToUpper(strings.TrimSpace(row.State))
		if state == "" {
			continue
		}

		byState[state] += row.Count
		if byState[state] > maxCount {
			maxCount = byState[state]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"byState":    byState,
			"maxCount":   maxCount,
			"totalLeads": totalLeads,
		},
	})
}
