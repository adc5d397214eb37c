package users

import (
	"sort"
	"time"
)

// User is an account created on first login. SealedKeys maps an LLM provider
// name to the user's API key, sealed with a Sealer; it never leaves the service.
type User struct {
	ID                string            `json:"id"`
	Email             string            `json:"email"`
	FullName          string            `json:"fullName"`
	GivenName         string            `json:"givenName"`
	FamilyName        string            `json:"familyName"`
	PictureURL        string            `json:"pictureUrl"`
	PreferredLanguage string            `json:"preferredLanguage"`
	SealedKeys        map[string]string `json:"-"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Providers returns the names of the providers the user holds a key for.
func (u User) Providers() []string {
	out := make([]string, 0, len(u.SealedKeys))
	for name, sealed := range u.SealedKeys {
		if sealed != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Settings is a partial update of the user's preferences. A nil
// PreferredLanguage leaves the language untouched; an empty key removes it.
type Settings struct {
	PreferredLanguage *string
	APIKeys           map[string]string
}
