// Package upload stores user-supplied images on local disk.
package upload

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	pkgerrors "github.com/pkg/errors"

	"storyhub/internal/apperr"
)

var (
	ErrUnsupportedType = apperr.New(apperr.Validation, "unsupported file type")
	ErrTooLarge        = apperr.New(apperr.Validation, "file too large")
	ErrEmpty           = apperr.New(apperr.Validation, "file is empty")
	ErrBadKey          = apperr.New(apperr.Validation, "invalid upload key")
)

// ImageTypes maps allowed file extensions to the MIME type their content
// must sniff as.
var ImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

const sniffLen = 3072

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Store struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
	Allowed   map[string]string

	mu sync.Mutex
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{Dir: dir, URLPrefix: "/uploads", MaxBytes: maxBytes, Allowed: ImageTypes}
}

// Save writes r to <Dir>/<key><ext> and returns its public URL path. The
// extension and sniffed content type are checked before anything touches the
// disk; the bytes land in a temp file that is renamed into place only once
// fully written, so readers never see a partial file. Any previous file for
// key with a different extension is removed in the same critical section as
// the rename, so the last finished upload is always the file left on disk.
func (s *Store) Save(key, filename string, r io.Reader) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", ErrBadKey
	}
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := s.Allowed[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", pkgerrors.Wrap(err, "read upload")
	}
	head = head[:n]
	if n == 0 {
		return "", ErrEmpty
	}
	if s.MaxBytes > 0 && int64(n) > s.MaxBytes {
		return "", ErrTooLarge
	}
	if !mimetype.Detect(head).Is(want) {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(err, "create upload dir")
	}
	name := key + ext
	if err := s.writeAtomic(key, name, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		return "", err
	}
	return path.Join(s.URLPrefix, name), nil
}

// removeStale deletes key's files under every other allowed extension.
func (s *Store) removeStale(key, keep string) {
	for ext := range s.Allowed {
		if key+ext != keep {
			_ = os.Remove(filepath.Join(s.Dir, key+ext))
		}
	}
}

func (s *Store) writeAtomic(key, name string, r io.Reader) error {
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return pkgerrors.Wrap(err, "create temp file")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		return pkgerrors.Wrap(err, "write upload")
	}
	if s.MaxBytes > 0 && written > s.MaxBytes {
		return ErrTooLarge
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		committed = true
		return pkgerrors.Wrap(err, "close temp file")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeStale(key, name)
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		_ = os.Remove(tmp.Name())
		committed = true
		return pkgerrors.Wrap(err, "move upload into place")
	}
	committed = true
	return nil
}
