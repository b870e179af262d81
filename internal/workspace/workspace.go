package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reembolsos/pkg/types"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("workspace not found")

var (
	IDSize     = 21
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

const receiptsDirName = "receipts"

// Store hands out one working directory per submission under a common root.
type Store struct {
	root   string
	logger logrus.FieldLogger
}

func NewStore(config *types.Config, logger logrus.FieldLogger) *Store {
	return &Store{
		root:   config.WorkDir,
		logger: logger,
	}
}

func (s *Store) Root() string {
	return s.root
}

// Workspace is the working directory owned by a single submission.
type Workspace struct {
	ID  string
	Dir string
}

func (s *Store) Create() (*Workspace, error) {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	id := gonanoid.MustGenerate(idAlphabet, IDSize)
	dir := filepath.Join(s.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", id, err)
	}

	return &Workspace{ID: id, Dir: dir}, nil
}

// Open returns an existing workspace. Unknown, malformed or swept ids yield ErrNotFound.
func (s *Store) Open(id string) (*Workspace, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	dir := filepath.Join(s.root, id)
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return nil, ErrNotFound
	}

	return &Workspace{ID: id, Dir: dir}, nil
}

// Path returns where a file named name lives inside the workspace. Only the base name is used.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, filepath.Base(name))
}

func (w *Workspace) ReceiptsDir() string {
	return filepath.Join(w.Dir, receiptsDirName)
}

// File resolves a generated artifact for download.
func (w *Workspace) File(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}

	path := w.Path(name)
	st, err := os.Stat(path)
	if err != nil || !st.Mode().IsRegular() {
		return "", ErrNotFound
	}

	return path, nil
}

// Sweep removes every workspace last modified before now-ttl and returns how many were removed.
func (s *Store) Sweep(ttl time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read work dir: %w", err)
	}

	cutoff := now.Add(-ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !validID(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(s.root, entry.Name())); err != nil {
			s.logger.WithError(err).WithField("request_id", entry.Name()).Warn("failed to remove expired workspace")
			continue
		}
		removed++
	}

	return removed, nil
}

func validID(id string) bool {
	if len(id) != IDSize {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			return false
		}
	}
	return true
}
