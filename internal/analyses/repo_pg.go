package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const recordColumns = `id, user_id, file_name, content_type, size_bytes, document_language, target_language,
       urgency, summary, fields, extraction_method, provider, model, prompt_version, raw_response,
       storage_key, created_at`

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO analysis_records (
	id, user_id, file_name, content_type, size_bytes, document_language, target_language,
	urgency, summary, fields, extraction_method, provider, model, prompt_version, raw_response,
	storage_key, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	fields, err := json.Marshal(rec.Fields.normalized())
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	urgency := rec.Urgency
	if urgency == "" {
		urgency = UrgencyUnknown
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.FileName,
		rec.ContentType,
		rec.SizeBytes,
		nullableString(rec.DocumentLanguage),
		rec.TargetLanguage,
		string(urgency),
		rec.Summary,
		fields,
		rec.ExtractionMethod,
		rec.Provider,
		rec.Model,
		rec.PromptVersion,
		rec.RawResponse,
		nullableString(rec.StorageKey),
		rec.CreatedAt,
	)
	return err
}

// GetForUser returns a record owned by userID.
func (r *PGRepo) GetForUser(ctx context.Context, userID, recordID string) (Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM analysis_records
WHERE id = $1 AND user_id = $2
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, recordID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByUser returns records newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Record, error) {
	query := `
SELECT ` + recordColumns + `
FROM analysis_records
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var docLang, storageKey sql.NullString
	var urgency string
	var fields []byte
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.FileName,
		&rec.ContentType,
		&rec.SizeBytes,
		&docLang,
		&rec.TargetLanguage,
		&urgency,
		&rec.Summary,
		&fields,
		&rec.ExtractionMethod,
		&rec.Provider,
		&rec.Model,
		&rec.PromptVersion,
		&rec.RawResponse,
		&storageKey,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.DocumentLanguage = docLang.String
	rec.StorageKey = storageKey.String
	rec.Urgency = NormalizeUrgency(urgency)
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return Record{}, fmt.Errorf("decode fields for record %s: %w", rec.ID, err)
		}
	}
	rec.Fields = rec.Fields.normalized()
	return rec, nil
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
