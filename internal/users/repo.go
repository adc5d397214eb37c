package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// Repo stores accounts. Sealed keys are opaque to the repository.
type Repo interface {
	// Upsert stores the identity fields. Settings of an existing user are kept.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// SaveSettings replaces the preferred language and the sealed keys.
	SaveSettings(ctx context.Context, userID, preferredLanguage string, sealedKeys map[string]string) error
}
