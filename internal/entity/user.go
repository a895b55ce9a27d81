package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email or phone already exists")
)

// User is the customer identity record behind one or more leads.
// Email and phone are both optional but unique when present.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUser(email, phone, firstName, lastName string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Email:     email,
		Phone:     phone,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*User, error)
	TouchUpdatedAt(ctx context.Context, id string, at time.Time) error
}
