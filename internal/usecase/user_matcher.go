package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/neticdev/lead-intake/internal/entity"
)

// UserMatcher resolves a submission to a customer identity: exact email
// match first, then exact phone match, otherwise a new user. There is no
// cross-field reconciliation: a known phone submitted together with a new
// email still matches by phone, but the new email is not linked to the
// existing record. That limitation is deliberate and must stay observable.
type UserMatcher struct {
	Users entity.UserRepositoryInterface
}

func NewUserMatcher(users entity.UserRepositoryInterface) *UserMatcher {
	return &UserMatcher{Users: users}
}

type UserMatchResult struct {
	User  *entity.User
	IsNew bool
}

func (m *UserMatcher) FindOrCreate(ctx context.Context, email, phone, firstName, lastName string) (*UserMatchResult, error) {
	now := time.Now().UTC()

	if email != "" {
		user, err := m.Users.FindByEmail(ctx, email)
		if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
			return nil, err
		}
		if user != nil {
			if err := m.Users.TouchUpdatedAt(ctx, user.ID, now); err != nil {
				return nil, err
			}
			user.UpdatedAt = now
			return &UserMatchResult{User: user, IsNew: false}, nil
		}
	}

	if phone != "" {
		user, err := m.Users.FindByPhone(ctx, phone)
		if err != nil && !errors.Is(err, entity.ErrUserNotFound) {
			return nil, err
		}
		if user != nil {
			if err := m.Users.TouchUpdatedAt(ctx, user.ID, now); err != nil {
				return nil, err
			}
			user.UpdatedAt = now
			return &UserMatchResult{User: user, IsNew: false}, nil
		}
	}

	user := entity.NewUser(email, phone, firstName, lastName)
	if err := m.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	return &UserMatchResult{User: user, IsNew: true}, nil
}
