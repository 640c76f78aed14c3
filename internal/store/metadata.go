package store

import (
	"context"
	"database/sql"
	"errors"
)

// SetMetadata upserts a key-value pair in the exam_metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_metadata (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM exam_metadata WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func importHashKey(kind, path string) string {
	return "import_hash:" + kind + ":" + path
}

// GetImportedFileHash returns the hash recorded for the last import of
// path as kind, or "" if the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, kind, path string) (string, error) {
	return s.GetMetadata(ctx, importHashKey(kind, path))
}

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(ctx context.Context, kind, path, hash string) error {
	return s.SetMetadata(ctx, importHashKey(kind, path), hash)
}
