package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neticdev/lead-intake/internal/entity"
)

const leadColumns = `
	id, user_id, address_line1, address_line2, city, state, postal_code,
	source, description, category, urgency, correlation_id, al_account_id,
	status, converted, received_at, processed_at
`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (
			id, user_id, address_line1, address_line2, city, state, postal_code,
			source, description, category, urgency, correlation_id, al_account_id,
			status, converted, received_at, processed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.UserID,
		nullString(lead.AddressLine1),
		nullString(lead.AddressLine2),
		nullString(lead.City),
		nullString(lead.State),
		nullString(lead.PostalCode),
		lead.Source,
		nullString(lead.Description),
		nullString(lead.Category),
		nullString(lead.Urgency),
		nullString(lead.CorrelationID),
		nullString(lead.ALAccountID),
		lead.Status,
		lead.Converted,
		lead.ReceivedAt,
		lead.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateCorrelationID
		}
		return err
	}

	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *LeadRepository) FindByCorrelationID(ctx context.Context, correlationID string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE correlation_id = $1`
	return r.queryOne(ctx, query, correlationID)
}

func (r *LeadRepository) queryOne(ctx context.Context, query string, arg any) (*entity.Lead, error) {
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (r *LeadRepository) FindByUserID(ctx context.Context, userID, excludeLeadID string) ([]*entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE user_id = $1 AND id <> $2
		ORDER BY received_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, excludeLeadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *LeadRepository) MarkProcessed(ctx context.Context, id, status string, processedAt time.Time) error {
	query := `UPDATE leads SET status = $1, processed_at = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctx, query, status, processedAt, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}

	return nil
}

// List applies the dashboard filters with one data query and one count
// query sharing the same WHERE clause.
func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, int, error) {
	var conditions []string
	var args []any

	addCondition := func(expr string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(expr, len(args)))
	}

	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.Source != "" {
		addCondition("source = $%d", filter.Source)
	}
	if filter.UserID != "" {
		addCondition("user_id = $%d", filter.UserID)
	}
	if filter.From != nil {
		addCondition("received_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCondition("received_at <= $%d", *filter.To)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT count(*) FROM leads` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(" ORDER BY received_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// CountByState returns the raw GROUP BY rows, NULL state included as "".
// The stats endpoint normalizes and merges the keys.
func (r *LeadRepository) CountByState(ctx context.Context) ([]entity.StateCount, error) {
	query := `SELECT state, count(*) FROM leads GROUP BY state`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []entity.StateCount
	for rows.Next() {
		var state sql.NullString
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts = append(counts, entity.StateCount{State: fromNullString(state), Count: count})
	}

	return counts, rows.Err()
}

func collectLeads(rows *sql.Rows) ([]*entity.Lead, error) {
	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var lead entity.Lead
	var addressLine1, addressLine2, city, state, postalCode sql.NullString
	var description, category, urgency, correlationID, alAccountID sql.NullString
	var processedAt sql.NullTime

	err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&addressLine1,
		&addressLine2,
		&city,
		&state,
		&postalCode,
		&lead.Source,
		&description,
		&category,
		&urgency,
		&correlationID,
		&alAccountID,
		&lead.Status,
		&lead.Converted,
		&lead.ReceivedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.AddressLine1 = fromNullString(addressLine1)
	lead.AddressLine2 = fromNullString(addressLine2)
	lead.City = fromNullString(city)
	lead.State = fromNullString(state)
	lead.PostalCode = fromNullString(postalCode)
	lead.Description = fromNullString(description)
	lead.Category = fromNullString(category)
	lead.Urgency = fromNullString(urgency)
	lead.CorrelationID = fromNullString(correlationID)
	lead.ALAccountID = fromNullString(alAccountID)
	if processedAt.Valid {
		t := processedAt.Time
		lead.ProcessedAt = &t
	}

	return &lead, nil
}
