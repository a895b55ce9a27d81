package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/usecase"
)

const testCorrelationID = "11111111-1111-1111-1111-111111111111"

func validAngiInput() usecase.AngiLeadInput {
	return usecase.AngiLeadInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		PhoneNumber: "3175550100",
		Email:       "jane@example.com",
		Source:      "Angi Leads",
		Description: "Deep clean of a 3 bedroom house",
		Category:    "House Cleaning",
		Urgency:     "today",
		PostalAddress: usecase.AngiPostalAddress{
			AddressFirstLine: "123 Main St",
			City:             "Indianapolis",
			State:            "IN",
			PostalCode:       "46201",
		},
		CorrelationID: testCorrelationID,
		ALAccountID:   "AL-9000",
	}
}

func newIntakeUseCase(
	leads *MockLeadRepository,
	users *MockUserRepository,
	messages *MockMessageRepository,
	duplicates *MockDuplicateRepository,
	sender *MockEmailSender,
	events usecase.EventPublisher,
) *usecase.IntakeLeadUseCase {
	logger := zap.NewNop().Sugar()
	return usecase.NewIntakeLeadUseCase(
		leads,
		usecase.NewUserMatcher(users),
		usecase.NewDuplicateDetector(leads, duplicates),
		usecase.NewMessagingService(messages, sender, "netic@example.com", "http://localhost:3000/book", logger),
		events,
		logger,
	)
}

func TestIntakeFreshLead(t *testing.T) {
	ctx := context.Background()

	draft := entity.NewMessage("lead-1", entity.MessageChannelEmail, entity.MessageDirectionOutbound)
	draft.ToAddress = "jane@example.com"

	mockLeads := new(MockLeadRepository)
	mockLeads.On("FindByCorrelationID", ctx, testCorrelationID).Return(nil, entity.ErrLeadNotFound)
	mockLeads.On("Create", ctx, mock.Anything).Return(nil)
	mockLeads.On("MarkProcessed", ctx, mock.Anything, entity.LeadStatusProcessed, mock.Anything).Return(nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByEmail", ctx, "jane@example.com").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("FindByPhone", ctx, "3175550100").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("Create", ctx, mock.Anything).Return(nil)

	mockMessages := new(MockMessageRepository)
	mockMessages.On("Create", ctx, mock.Anything).Return(nil)
	mockMessages.On("FindByID", ctx, mock.Anything).Return(draft, nil)
	mockMessages.On("UpdateStatus", ctx, draft.ID, entity.MessageStatusSent, "<abc@example.com>", mock.Anything).Return(nil)

	mockSender := new(MockEmailSender)
	mockSender.On("Send", mock.Anything).Return("<abc@example.com>", nil)

	mockEvents := new(MockEventPublisher)
	mockEvents.On("PublishLeadEvent", ctx, mock.Anything).Return(nil)

	uc := newIntakeUseCase(mockLeads, mockUsers, mockMessages, new(MockDuplicateRepository), mockSender, mockEvents)

	output, err := uc.Execute(ctx, validAngiInput())

	assert.NoError(t, err)
	assert.True(t, output.Success)
	assert.False(t, output.IsDuplicate)
	assert.NotEmpty(t, output.LeadID)
	assert.NotEmpty(t, output.UserID)
	assert.NotEmpty(t, output.MessageID)
	if assert.NotNil(t, output.SpeedToLeadMs) {
		assert.GreaterOrEqual(t, *output.SpeedToLeadMs, int64(0))
	}
	if assert.NotNil(t, output.EmailSent) {
		assert.True(t, *output.EmailSent)
	}
	mockEvents.AssertCalled(t, "PublishLeadEvent", ctx, mock.Anything)
}

func TestIntakeDuplicateReplay(t *testing.T) {
	ctx := context.Background()

	original := entity.NewLead("user-1", time.Now().UTC())
	original.CorrelationID = testCorrelationID

	mockLeads := new(MockLeadRepository)
	mockLeads.On("FindByCorrelationID", ctx, testCorrelationID).Return(original, nil)

	mockDuplicates := new(MockDuplicateRepository)
	mockDuplicates.On("Create", ctx, mock.Anything).Return(nil)

	mockUsers := new(MockUserRepository)
	mockSender := new(MockEmailSender)

	uc := newIntakeUseCase(mockLeads, mockUsers, new(MockMessageRepository), mockDuplicates, mockSender, nil)

	output, err := uc.Execute(ctx, validAngiInput())

	assert.NoError(t, err)
	assert.True(t, output.Success)
	assert.True(t, output.IsDuplicate)
	assert.Equal(t, original.ID, output.LeadID)
	assert.Equal(t, original.UserID, output.UserID)
	assert.Nil(t, output.SpeedToLeadMs)
	assert.Empty(t, output.MessageID)

	// A replay must not write a lead, touch users, or send anything.
	mockLeads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockUsers.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	mockUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockSender.AssertNotCalled(t, "Send", mock.Anything)
	mockDuplicates.AssertCalled(t, "Create", ctx, mock.Anything)
}

func TestIntakeRecoversLostInsertRace(t *testing.T) {
	ctx := context.Background()

	original := entity.NewLead("user-1", time.Now().UTC())
	original.CorrelationID = testCorrelationID

	mockLeads := new(MockLeadRepository)
	// The check sees nothing, the insert hits the unique constraint, the
	// re-read finds the row the concurrent request won with.
	mockLeads.On("FindByCorrelationID", ctx, testCorrelationID).Return(nil, entity.ErrLeadNotFound).Once()
	mockLeads.On("Create", ctx, mock.Anything).Return(entity.ErrDuplicateCorrelationID)
	mockLeads.On("FindByCorrelationID", ctx, testCorrelationID).Return(original, nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByEmail", ctx, "jane@example.com").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("FindByPhone", ctx, "3175550100").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("Create", ctx, mock.Anything).Return(nil)

	mockDuplicates := new(MockDuplicateRepository)
	mockDuplicates.On("Create", ctx, mock.Anything).Return(nil)

	mockSender := new(MockEmailSender)

	uc := newIntakeUseCase(mockLeads, mockUsers, new(MockMessageRepository), mockDuplicates, mockSender, nil)

	output, err := uc.Execute(ctx, validAngiInput())

	assert.NoError(t, err)
	assert.True(t, output.IsDuplicate)
	assert.Equal(t, original.ID, output.LeadID)
	assert.Nil(t, output.SpeedToLeadMs)
	mockSender.AssertNotCalled(t, "Send", mock.Anything)
	mockDuplicates.AssertCalled(t, "Create", ctx, mock.Anything)
}

func TestIntakeSurvivesTransportFailure(t *testing.T) {
	ctx := context.Background()

	draft := entity.NewMessage("lead-1", entity.MessageChannelEmail, entity.MessageDirectionOutbound)
	draft.ToAddress = "jane@example.com"

	mockLeads := new(MockLeadRepository)
	mockLeads.On("FindByCorrelationID", ctx, testCorrelationID).Return(nil, entity.ErrLeadNotFound)
	mockLeads.On("Create", ctx, mock.Anything).Return(nil)
	mockLeads.On("MarkProcessed", ctx, mock.Anything, entity.LeadStatusPending, mock.Anything).Return(nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByEmail", ctx, "jane@example.com").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("FindByPhone", ctx, "3175550100").Return(nil, entity.ErrUserNotFound)
	mockUsers.On("Create", ctx, mock.Anything).Return(nil)

	mockMessages := new(MockMessageRepository)
	mockMessages.On("Create", ctx, mock.Anything).Return(nil)
	mockMessages.On("FindByID", ctx, mock.Anything).Return(draft, nil)
	mockMessages.On("UpdateStatus", ctx, draft.ID, entity.MessageStatusFailed, "", (*time.Time)(nil)).Return(nil)

	mockSender := new(MockEmailSender)
	mockSender.On("Send", mock.Anything).Return("", errors.New("smtp down"))

	uc := newIntakeUseCase(mockLeads, mockUsers, mockMessages, new(MockDuplicateRepository), mockSender, nil)

	output, err := uc.Execute(ctx, validAngiInput())

	// A dead transport never fails the intake. The lead stays pending.
	assert.NoError(t, err)
	assert.True(t, output.Success)
	assert.False(t, output.IsDuplicate)
	if assert.NotNil(t, output.EmailSent) {
		assert.False(t, *output.EmailSent)
	}
	assert.NotNil(t, output.SpeedToLeadMs)
	mockLeads.AssertCalled(t, "MarkProcessed", ctx, mock.Anything, entity.LeadStatusPending, mock.Anything)
}

func TestIntakeRejectsInvalidPayload(t *testing.T) {
	ctx := context.Background()

	input := validAngiInput()
	input.Email = "not-an-email"
	input.CorrelationID = "not-a-uuid"

	mockLeads := new(MockLeadRepository)

	uc := newIntakeUseCase(mockLeads, new(MockUserRepository), new(MockMessageRepository), new(MockDuplicateRepository), new(MockEmailSender), nil)

	output, err := uc.Execute(ctx, input)

	assert.Nil(t, output)
	var ipe *usecase.InvalidPayloadError
	if assert.ErrorAs(t, err, &ipe) {
		fields := ipe.Fields()
		assert.Contains(t, fields, "Email")
		assert.Contains(t, fields, "CorrelationId")
	}
	mockLeads.AssertNotCalled(t, "FindByCorrelationID", mock.Anything, mock.Anything)
	mockLeads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
