package domain

import (
	"context"
	"io"
	"time"
)

// Attachment is an open stored file; the caller must Close Content.
type Attachment struct {
	Name        string
	ContentType string
	// Inline asks clients to render instead of download (PDF).
	Inline  bool
	Size    int64
	ModTime time.Time
	Content io.ReadSeekCloser
}

//go:generate mockgen -destination=../storage/mocks/mock_file_store.go -package=mocks ats-backend/internal/domain FileStore

// FileStore owns attachment bytes; records only keep the locator.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, originalName string) (locator string, err error)
	Retrieve(ctx context.Context, locator string) (*Attachment, error)
	// Delete is idempotent: a missing file is not an error.
	Delete(ctx context.Context, locator string) error
}
