package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"letter-backend/internal/shared/storage/object"
)

const extractedSuffix = ".extracted.txt"

// Archive persists originals and their extracted text in an object store.
type Archive struct {
	Store object.ObjectStore
}

// Save stores the original upload under the owner's namespace and the extracted
// text next to it. It returns the storage key of the original.
func (a *Archive) Save(ctx context.Context, userID string, doc Document, extractedText string) (string, error) {
	if a == nil || a.Store == nil {
		return "", errors.New("archive store not configured")
	}
	name := strings.TrimSpace(doc.FileName)
	if name == "" {
		name = "upload"
	}
	key, _, _, err := a.Store.Save(ctx, userID, name, bytes.NewReader(doc.Data))
	if err != nil {
		return "", fmt.Errorf("archive original: %w", err)
	}
	if strings.TrimSpace(extractedText) == "" {
		return key, nil
	}
	saver, ok := a.Store.(object.KeyedStore)
	if !ok {
		return key, nil
	}
	if _, err := saver.SaveWithKey(ctx, key+extractedSuffix, "text/plain; charset=utf-8", strings.NewReader(extractedText)); err != nil {
		return key, fmt.Errorf("archive extracted text: %w", err)
	}
	return key, nil
}

// ExtractedKey returns the storage key of the extracted text for an archived original.
func ExtractedKey(storageKey string) string {
	return storageKey + extractedSuffix
}
