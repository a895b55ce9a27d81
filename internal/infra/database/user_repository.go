package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/neticdev/lead-intake/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, phone, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		nullString(user.Email),
		nullString(user.Phone),
		nullString(user.FirstName),
		nullString(user.LastName),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrUserAlreadyExists
		}
		return err
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findBy(ctx, "id", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.findBy(ctx, "phone", phone)
}

func (r *UserRepository) findBy(ctx context.Context, column, value string) (*entity.User, error) {
	query := `
		SELECT id, email, phone, first_name, last_name, created_at, updated_at
		FROM users
		WHERE ` + column + ` = $1
	`

	user, err := scanUser(r.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// FindByIDs loads a batch of users in one query, keyed by id. Used by the
// listing endpoint to enrich a page of leads without per-row lookups.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.User, error) {
	if len(ids) == 0 {
		return map[string]*entity.User{}, nil
	}

	query := `
		SELECT id, email, phone, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = ANY($1)
	`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]*entity.User, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}

	return users, rows.Err()
}

func (r *UserRepository) TouchUpdatedAt(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET updated_at = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, at, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var user entity.User
	var email, phone, firstName, lastName sql.NullString

	err := row.Scan(
		&user.ID,
		&email,
		&phone,
		&firstName,
		&lastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Email = fromNullString(email)
	user.Phone = fromNullString(phone)
	user.FirstName = fromNullString(firstName)
	user.LastName = fromNullString(lastName)
	return &user, nil
}
