package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/neticdev/lead-intake/internal/entity"
	"github.com/neticdev/lead-intake/internal/usecase"
)

func TestCheckNoDuplicate(t *testing.T) {
	ctx := context.Background()

	mockLeads := new(MockLeadRepository)
	mockLeads.On("FindByCorrelationID", ctx, "11111111-1111-1111-1111-111111111111").
		Return(nil, entity.ErrLeadNotFound)

	detector := usecase.NewDuplicateDetector(mockLeads, new(MockDuplicateRepository))

	result, err := detector.Check(ctx, "11111111-1111-1111-1111-111111111111")

	assert.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	assert.Nil(t, result.OriginalLead)
}

func TestCheckFindsOriginal(t *testing.T) {
	ctx := context.Background()

	original := entity.NewLead("user-1", time.Now().UTC())
	original.CorrelationID = "11111111-1111-1111-1111-111111111111"

	mockLeads := new(MockLeadRepository)
	mockLeads.On("FindByCorrelationID", ctx, original.CorrelationID).Return(original, nil)

	detector := usecase.NewDuplicateDetector(mockLeads, new(MockDuplicateRepository))

	result, err := detector.Check(ctx, original.CorrelationID)

	assert.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, original.ID, result.OriginalLead.ID)
}

func TestRecordAttemptMaterializesNoLeadRow(t *testing.T) {
	ctx := context.Background()

	mockDuplicates := new(MockDuplicateRepository)
	mockDuplicates.On("Create", ctx, mock.Anything).Return(nil)

	detector := usecase.NewDuplicateDetector(new(MockLeadRepository), mockDuplicates)

	record, err := detector.RecordAttempt(ctx, "lead-original")

	assert.NoError(t, err)
	assert.Equal(t, "lead-original", record.OriginalLeadID)
	assert.Empty(t, record.DuplicateLeadID)
	assert.Equal(t, entity.MatchCriteriaCorrelationID, record.MatchCriteria)
	assert.False(t, record.RebateClaimed)
	assert.Empty(t, record.RebateStatus)
}
