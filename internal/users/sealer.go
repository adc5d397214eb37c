package users

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const devCredentialsKey = "dev-credentials-key"

var ErrSealedValue = errors.New("sealed value cannot be opened")

// Sealer encrypts provider keys at rest with XChaCha20-Poly1305.
// The user id is bound as associated data, so a sealed key copied to another
// account does not open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the encryption key from secret. An empty secret uses a
// fixed development key.
func NewSealer(secret string) (*Sealer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		secret = devCredentialsKey
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("letter-backend/provider-keys"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive credentials key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init credentials cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plain for userID.
func (s *Sealer) Seal(userID, plain string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plain), []byte(userID))
	return base64.RawStdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal for the same userID.
func (s *Sealer) Open(userID, sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return "", ErrSealedValue
	}
	nonce, box := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, box, []byte(userID))
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plain), nil
}
