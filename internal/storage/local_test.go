package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-backend/internal/domain"
)

func newStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "uploads"), nil)
	require.NoError(t, err)
	s.Now = func() time.Time { return time.UnixMilli(1717000000000) }
	return s
}

func TestStore_NamingAndRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	loc, err := s.Store(ctx, strings.NewReader("%PDF-1.4 test"), "My Resume.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "/uploads/cv-1717000000000-"), loc)
	assert.True(t, strings.HasSuffix(loc, ".pdf"), loc)

	att, err := s.Retrieve(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.True(t, att.Inline)
	assert.EqualValues(t, len("%PDF-1.4 test"), att.Size)
	data, err := io.ReadAll(att.Content)
	require.NoError(t, err)
	require.NoError(t, att.Content.Close())
	assert.Equal(t, []byte("%PDF-1.4 test"), data)
}

func TestStore_UniqueNamesWithinSameMillisecond(t *testing.T) {
	s := newStore(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		loc, err := s.Store(context.Background(), bytes.NewReader([]byte{1}), "a.docx")
		require.NoError(t, err)
		require.False(t, seen[loc])
		seen[loc] = true
	}
}

func TestStore_DropsOddExtensions(t *testing.T) {
	s := newStore(t)
	loc, err := s.Store(context.Background(), strings.NewReader("x"), "evil.p/h\\p")
	require.NoError(t, err)
	assert.NotContains(t, strings.TrimPrefix(loc, URLPrefix), "/")
	assert.Equal(t, "", filepath.Ext(strings.TrimPrefix(loc, URLPrefix)))
}

func TestRetrieve_SniffsUnknownExtension(t *testing.T) {
	s := newStore(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "scan"), png, 0o644))

	att, err := s.Retrieve(context.Background(), "/uploads/scan")
	require.NoError(t, err)
	assert.Equal(t, "image/png", att.ContentType)
	assert.False(t, att.Inline)

	// sniffing must not consume the head of the stream
	defer att.Content.Close()
	data, err := io.ReadAll(att.Content)
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestRetrieve_DirectoryIsNotFound(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "sub"), 0o755))
	_, err := s.Retrieve(context.Background(), "/uploads/sub")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRetrieve_MissingAndTraversal(t *testing.T) {
	s := newStore(t)
	for _, loc := range []string{"/uploads/nope.pdf", "/uploads/../secret", "../../etc/passwd", ""} {
		_, err := s.Retrieve(context.Background(), loc)
		assert.ErrorIs(t, err, domain.ErrNotFound, loc)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	loc, err := s.Store(ctx, strings.NewReader("x"), "cv.pdf")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, loc))
	_, err = s.Retrieve(ctx, loc)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// second delete of the same locator is silent
	assert.NoError(t, s.Delete(ctx, loc))
	assert.ErrorIs(t, s.Delete(ctx, "/uploads/../x"), ErrInvalidLocator)
}
