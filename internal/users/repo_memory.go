package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	now := time.Now().UTC()
	if !ok {
		user.CreatedAt = now
		user.PreferredLanguage = ""
		user.SealedKeys = nil
	} else {
		user.CreatedAt = existing.CreatedAt
		user.PreferredLanguage = existing.PreferredLanguage
		user.SealedKeys = existing.SealedKeys
	}
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	user.SealedKeys = copyKeys(user.SealedKeys)
	return user, nil
}

func (r *MemoryRepo) SaveSettings(ctx context.Context, userID, preferredLanguage string, sealedKeys map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.PreferredLanguage = preferredLanguage
	user.SealedKeys = copyKeys(sealedKeys)
	user.UpdatedAt = time.Now().UTC()
	r.users[userID] = user
	return nil
}

func copyKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
