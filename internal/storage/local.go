// Package storage keeps uploaded CVs on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ats-backend/internal/domain"
)

// URLPrefix is the public path the stored files are served under.
const URLPrefix = "/uploads/"

var (
	ErrInvalidLocator = errors.New("storage: invalid locator")
	extRe             = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)
)

type LocalStore struct {
	Dir    string
	Prefix string // 文件名前缀，默认 cv
	Log    *zap.Logger
	Now    func() time.Time
}

func NewLocalStore(dir string, log *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalStore{Dir: dir, Prefix: "cv", Log: log, Now: time.Now}, nil
}

var _ domain.FileStore = (*LocalStore)(nil)

// Store writes r under cv-<unix millis>-<uuid><ext> and returns /uploads/<name>.
func (s *LocalStore) Store(_ context.Context, r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !extRe.MatchString(ext) {
		ext = ""
	}
	name := s.Prefix + "-" + strconv.FormatInt(s.Now().UnixMilli(), 10) + "-" + uuid.NewString() + ext

	path := filepath.Join(s.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return URLPrefix + name, nil
}

func (s *LocalStore) Retrieve(_ context.Context, locator string) (*domain.Attachment, error) {
	name, err := nameOf(locator)
	if err != nil {
		return nil, domain.NotFound("File not found")
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NotFound("File not found")
	}
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		return nil, domain.NotFound("File not found")
	}

	ext := strings.ToLower(filepath.Ext(name))
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		// 只读文件头做嗅探，再回到开头交给调用方
		mt, err := mimetype.DetectReader(f)
		if err == nil {
			ct = mt.String()
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &domain.Attachment{
		Name:        name,
		ContentType: ct,
		Inline:      ext == ".pdf",
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		Content:     f,
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, locator string) error {
	name, err := nameOf(locator)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		s.Log.Warn("attachment already missing", zap.String("locator", locator))
		return nil
	}
	return err
}

// nameOf accepts /uploads/<name> or a bare file name and rejects anything
// that could escape the upload directory.
func nameOf(locator string) (string, error) {
	name := strings.TrimPrefix(locator, URLPrefix)
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return name, nil
}
