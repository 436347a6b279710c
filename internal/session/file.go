package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
)

// fileRecord is the on-disk layout. The two keys mirror the device storage
// entries the mobile client used.
type fileRecord struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

// FileStore persists the session as a small JSON document. Writes go to a
// temp file in the same directory and are renamed into place.
type FileStore struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &FileStore{path: path, logger: log}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) GetToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read()
	if err != nil {
		return "", err
	}
	return rec.Token, nil
}

func (s *FileStore) GetUser(_ context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read()
	if err != nil {
		return nil, err
	}
	return rec.User, nil
}

func (s *FileStore) SetSession(_ context.Context, token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileRecord{Token: token, User: user})
}

func (s *FileStore) ClearSession(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.NewSessionStoreError("clear", err)
	}
	return nil
}

func (s *FileStore) read() (fileRecord, error) {
	var rec fileRecord
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, os.ErrNotExist) {
		return rec, nil
	}
	if err != nil {
		return rec, errors.NewSessionStoreError("read", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		// a corrupt file is treated as signed out rather than wedging the client
		s.logger.Warn("Ignoring unreadable session file", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return fileRecord{}, nil
	}
	return rec, nil
}

func (s *FileStore) write(rec fileRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.NewSessionStoreError("encode", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.NewSessionStoreError("write", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return errors.NewSessionStoreError("write", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewSessionStoreError("write", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.NewSessionStoreError("write", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewSessionStoreError("write", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.NewSessionStoreError("write", err)
	}
	return nil
}
