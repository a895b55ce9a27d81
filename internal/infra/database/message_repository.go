package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/neticdev/lead-intake/internal/entity"
)

const messageColumns = `
	id, lead_id, channel, direction, from_address, to_address, subject,
	body, html_body, status, external_id, created_at, sent_at, delivered_at, read_at
`

type MessageRepository struct {
	DB *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	query := `
		INSERT INTO messages (
			id, lead_id, channel, direction, from_address, to_address, subject,
			body, html_body, status, external_id, created_at, sent_at, delivered_at, read_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := r.DB.ExecContext(ctx, query,
		message.ID,
		message.LeadID,
		message.Channel,
		message.Direction,
		message.FromAddress,
		message.ToAddress,
		nullString(message.Subject),
		message.Body,
		nullString(message.HTMLBody),
		message.Status,
		nullString(message.ExternalID),
		message.CreatedAt,
		message.SentAt,
		message.DeliveredAt,
		message.ReadAt,
	)

	return err
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*entity.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	message, err := scanMessage(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrMessageNotFound
		}
		return nil, err
	}

	return message, nil
}

// FindByLeadID returns the thread in chronological order.
func (r *MessageRepository) FindByLeadID(ctx context.Context, leadID string) ([]*entity.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE lead_id = $1 ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*entity.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *MessageRepository) UpdateStatus(ctx context.Context, id, status, externalID string, sentAt *time.Time) error {
	query := `
		UPDATE messages
		SET status = $1,
		    external_id = COALESCE($2, external_id),
		    sent_at = COALESCE($3, sent_at)
		WHERE id = $4
	`

	result, err := r.DB.ExecContext(ctx, query, status, nullString(externalID), sentAt, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrMessageNotFound
	}

	return nil
}

// CountByLeadIDs aggregates thread sizes for a page of leads in one query.
func (r *MessageRepository) CountByLeadIDs(ctx context.Context, leadIDs []string) (map[string]entity.MessageCounts, error) {
	counts := make(map[string]entity.MessageCounts, len(leadIDs))
	if len(leadIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT lead_id,
		       count(*),
		       count(*) FILTER (WHERE direction = 'inbound')
		FROM messages
		WHERE lead_id = ANY($1)
		GROUP BY lead_id
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(leadIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var leadID string
		var c entity.MessageCounts
		if err := rows.Scan(&leadID, &c.Total, &c.Inbound); err != nil {
			return nil, err
		}
		counts[leadID] = c
	}

	return counts, rows.Err()
}

func scanMessage(row rowScanner) (*entity.Message, error) {
	var message entity.Message
	var subject, htmlBody, externalID sql.NullString
	var sentAt, deliveredAt, readAt sql.NullTime

	err := row.Scan(
		&message.ID,
		&message.LeadID,
		&message.Channel,
		&message.Direction,
		&message.FromAddress,
		&message.ToAddress,
		&subject,
		&message.Body,
		&htmlBody,
		&message.Status,
		&externalID,
		&message.CreatedAt,
		&sentAt,
		&deliveredAt,
		&readAt,
	)
	if err != nil {
		return nil, err
	}

	message.Subject = fromNullString(subject)
	message.HTMLBody = fromNullString(htmlBody)
	message.ExternalID = fromNullString(externalID)
	if sentAt.Valid {
		t := sentAt.Time
		message.SentAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		message.DeliveredAt = &t
	}
	if readAt.Valid {
		t := readAt.Time
		message.ReadAt = &t
	}

	return &message, nil
}
