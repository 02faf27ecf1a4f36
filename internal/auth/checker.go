package auth

import (
	"context"
	"errors"
	"fmt"
	"postsuggest-bot/internal/database"
)

// AccessCheckerInterface is what handlers need to gate commands and submissions.
type AccessCheckerInterface interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// AccessChecker answers admin and ban questions from the users table.
type AccessChecker struct {
	users database.UserRepository
}

var _ AccessCheckerInterface = (*AccessChecker)(nil)

// NewAccessChecker creates a new AccessChecker.
func NewAccessChecker(users database.UserRepository) (*AccessChecker, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository cannot be nil")
	}
	return &AccessChecker{users: users}, nil
}

// IsAdmin reports whether the user carries the admin flag. Unknown users are not admins.
func (ac *AccessChecker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := ac.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check admin status of user %d: %w", userID, err)
	}
	return user.IsAdmin, nil
}

// IsBanned reports whether the user is banned. Unknown users are not banned.
func (ac *AccessChecker) IsBanned(ctx context.Context, userID int64) (bool, error) {
	user, err := ac.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check ban status of user %d: %w", userID, err)
	}
	return user.IsBanned, nil
}
