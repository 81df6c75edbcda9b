package oauth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	perr "codefill/internal/platform/errors"

	"golang.org/x/oauth2"
)

// FileStore keeps one token as JSON on disk, readable by the owner only
// An empty path keeps the token in memory for the life of the process
type FileStore struct {
	path string

	mu  sync.Mutex
	mem *oauth2.Token
}

// NewFileStore returns a store at path
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Load returns the stored token, or nil when there is none
func (s *FileStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		return s.mem, nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "read token file %s", s.path)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "decode token file %s", s.path)
	}
	return &tok, nil
}

// Save replaces the stored token atomically
func (s *FileStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == "" {
		s.mem = tok
		return nil
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "token dir %s", filepath.Dir(s.path))
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "token temp file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "token chmod")
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return perr.Wrap(err, perr.ErrorCodeUnknown, "token write")
	}
	if err := tmp.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "token close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "token rename %s", s.path)
	}
	return nil
}

// Clear forgets the token; a missing file is not an error
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "remove token file %s", s.path)
	}
	return nil
}
