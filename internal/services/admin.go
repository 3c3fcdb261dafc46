package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"yogastudio/internal/models"
	"yogastudio/internal/repository"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureAdmin grants the admin role to the account registered under email.
// An unregistered email is left for Register to promote.
func EnsureAdmin(ctx context.Context, store *repository.Store, email string, log *zap.Logger) error {
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := store.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("bootstrap admin not registered yet", zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	if user.Role == models.RoleAdmin && user.Active {
		return nil
	}

	user.Role = models.RoleAdmin
	user.Active = true
	if err := store.Users.Update(ctx, user); err != nil {
		return fmt.Errorf("promote bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin promoted", zap.String("user_id", user.ID), zap.String("email", email))
	return nil
}
