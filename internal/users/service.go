package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"letter-backend/internal/extraction"
	"letter-backend/internal/shared/telemetry"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidLanguage = errors.New("invalid language code")
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})?$`)

type Service struct {
	Repo   Repo
	Sealer *Sealer
	// KnownProviders lists the provider names a key may be stored for.
	KnownProviders []string
}

func NewService(repo Repo, sealer *Sealer, knownProviders []string) *Service {
	return &Service{Repo: repo, Sealer: sealer, KnownProviders: knownProviders}
}

// UpsertFromAuth persists the user identity from OAuth so records and settings have a stable owner.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// UpdateSettings applies a partial settings update and returns the stored user.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in Settings) (User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	language := user.PreferredLanguage
	if in.PreferredLanguage != nil {
		language = strings.ToLower(strings.TrimSpace(*in.PreferredLanguage))
		if language != "" && !languagePattern.MatchString(language) {
			return User{}, fmt.Errorf("%w: %q", ErrInvalidLanguage, *in.PreferredLanguage)
		}
	}

	keys := copyKeys(user.SealedKeys)
	for name, key := range in.APIKeys {
		provider := strings.ToLower(strings.TrimSpace(name))
		if !s.known(provider) {
			return User{}, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			delete(keys, provider)
			continue
		}
		sealed, err := s.Sealer.Seal(userID, key)
		if err != nil {
			return User{}, fmt.Errorf("seal %s key: %w", provider, err)
		}
		keys[provider] = sealed
	}

	if err := s.Repo.SaveSettings(ctx, userID, language, keys); err != nil {
		return User{}, err
	}
	user.PreferredLanguage = language
	user.SealedKeys = keys
	return user, nil
}

// IntakeProfile returns the preferred language and the opened provider keys.
// A user without a stored account has no settings.
func (s *Service) IntakeProfile(ctx context.Context, userID string) (string, extraction.Credentials, error) {
	user, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", extraction.Credentials{}, nil
	}
	if err != nil {
		return "", extraction.Credentials{}, err
	}

	creds := extraction.Credentials{LLMKeys: make(map[string]string, len(user.SealedKeys))}
	for provider, sealed := range user.SealedKeys {
		key, err := s.Sealer.Open(userID, sealed)
		if err != nil {
			telemetry.Warn("users.key_unreadable", map[string]any{"user_id": userID, "provider": provider})
			continue
		}
		creds.LLMKeys[provider] = key
	}
	return user.PreferredLanguage, creds, nil
}

func (s *Service) known(provider string) bool {
	for _, p := range s.KnownProviders {
		if p == provider {
			return true
		}
	}
	return false
}
