package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/neticdev/lead-intake/internal/entity"
)

type DuplicateRepository struct {
	DB *sql.DB
}

func NewDuplicateRepository(db *sql.DB) *DuplicateRepository {
	return &DuplicateRepository{DB: db}
}

func (r *DuplicateRepository) Create(ctx context.Context, record *entity.DuplicateLead) error {
	query := `
		INSERT INTO duplicate_leads (
			id, original_lead_id, duplicate_lead_id, match_criteria,
			detected_at, rebate_claimed, rebate_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		record.ID,
		record.OriginalLeadID,
		nullString(record.DuplicateLeadID),
		record.MatchCriteria,
		record.DetectedAt,
		record.RebateClaimed,
		nullString(record.RebateStatus),
	)

	return err
}

// ListForRebate feeds the partner rebate reconciliation report.
func (r *DuplicateRepository) ListForRebate(ctx context.Context, filter entity.DuplicateFilter) ([]*entity.DuplicateLead, error) {
	var conditions []string
	var args []any

	if filter.Unclaimed {
		conditions = append(conditions, "rebate_claimed = FALSE")
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("detected_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("detected_at <= $%d", len(args)))
	}

	query := `
		SELECT id, original_lead_id, duplicate_lead_id, match_criteria,
		       detected_at, rebate_claimed, rebate_status
		FROM duplicate_leads
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY detected_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*entity.DuplicateLead
	for rows.Next() {
		var record entity.DuplicateLead
		var duplicateLeadID, rebateStatus sql.NullString

		err := rows.Scan(
			&record.ID,
			&record.OriginalLeadID,
			&duplicateLeadID,
			&record.MatchCriteria,
			&record.DetectedAt,
			&record.RebateClaimed,
			&rebateStatus,
		)
		if err != nil {
			return nil, err
		}

		record.DuplicateLeadID = fromNullString(duplicateLeadID)
		record.RebateStatus = fromNullString(rebateStatus)
		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *DuplicateRepository) MarkRebateClaimed(ctx context.Context, id, status string) error {
	query := `UPDATE duplicate_leads SET rebate_claimed = TRUE, rebate_status = $1 WHERE id = $2`

	_, err := r.DB.ExecContext(ctx, query, status, id)
	return err
}
