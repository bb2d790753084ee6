package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

// FileStore keeps one JSON credential file per user under a root directory.
// Writes go through a temp file and an atomic rename so a concurrent reader
// never observes a partial record. Filenames are derived from a hash of the
// user identity, so arbitrary identities (emails) never hit the filesystem
// raw.
type FileStore struct {
	dir string
}

// NewFileStore creates the root directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create credential dir: %w (%w)", err, ErrStorage)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, hash.UserKey(userID)+".json")
}

func (s *FileStore) Get(_ context.Context, userID string) (*model.Credential, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read credential: %w (%w)", err, ErrStorage)
	}

	var cred model.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w (%w)", err, ErrStorage)
	}
	return &cred, nil
}

func (s *FileStore) Put(_ context.Context, userID string, cred *model.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w (%w)", err, ErrStorage)
	}

	final := s.path(userID)
	tmp, err := os.CreateTemp(s.dir, ".cred-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w (%w)", err, ErrStorage)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credential: %w (%w)", err, ErrStorage)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod credential: %w (%w)", err, ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close credential: %w (%w)", err, ErrStorage)
	}

	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit credential: %w (%w)", err, ErrStorage)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, userID string) error {
	err := os.Remove(s.path(userID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete credential: %w (%w)", err, ErrStorage)
	}
	return nil
}
