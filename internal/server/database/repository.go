package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fileembed/internal/server/store"

	"github.com/jackc/pgx/v5"
)

// FileRepository is a Postgres-backed store.Store. Rows are insert-only.
type FileRepository struct {
	db     *DB
	nextID store.IDGenerator
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db, nextID: store.GenerateID}
}

// Put inserts a new file row. A primary key collision leaves the existing
// row untouched and is retried with a fresh id.
func (r *FileRepository) Put(ctx context.Context, f store.NewFile) (string, error) {
	now := time.Now().UTC()

	for attempt := 1; attempt <= store.MaxIDAttempts; attempt++ {
		id, err := r.nextID()
		if err != nil {
			return "", err
		}

		tag, err := r.db.Pool.Exec(ctx, `
			INSERT INTO files (
				id, name, mime_type, size_bytes, content,
				author, author_icon, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING
		`,
			id,
			f.Name,
			f.MimeType,
			f.SizeBytes,
			f.Content,
			nullable(f.Author.Name),
			nullable(f.Author.IconURL),
			now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return id, nil
		}
		slog.Warn("file id collision, retrying", "attempt", attempt)
	}
	return "", store.ErrIDExhausted
}

// Get retrieves a file by its ID.
func (r *FileRepository) Get(ctx context.Context, id string) (*store.StoredFile, error) {
	if !store.ValidID(id) {
		return nil, store.ErrNotFound
	}

	var (
		f          store.StoredFile
		author     *string
		authorIcon *string
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, mime_type, size_bytes, content,
			   author, author_icon, created_at
		FROM files WHERE id = $1
	`, id).Scan(
		&f.ID,
		&f.Name,
		&f.MimeType,
		&f.SizeBytes,
		&f.Content,
		&author,
		&authorIcon,
		&f.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	if author != nil {
		f.Author.Name = *author
	}
	if authorIcon != nil {
		f.Author.IconURL = *authorIcon
	}
	return &f, nil
}

// Exists checks for a row without loading its content.
func (r *FileRepository) Exists(ctx context.Context, id string) (bool, error) {
	if !store.ValidID(id) {
		return false, nil
	}

	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM files WHERE id = $1)", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of stored files.
func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM files").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// nullable maps an omitted optional field to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
