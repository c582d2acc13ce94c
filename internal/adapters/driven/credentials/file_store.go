// Package credentials provides the file-backed credential store.
//
// Credentials for all accounts live in a single JSON file under the user's
// config directory. Writes go to a temporary file in the same directory
// followed by an atomic rename, so a concurrent reader never observes a
// partial write, and the file is restricted to owner read/write.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gwenonit/outlook-cli/internal/core/domain"
	"github.com/gwenonit/outlook-cli/internal/core/ports/driven"
)

// tokensFile is the store file name inside the config directory.
const tokensFile = "tokens.json"

// File permissions: tokens are secrets, owner-only.
const (
	filePerm = 0600
	dirPerm  = 0700
)

// FileStore persists credential records as a JSON object keyed by account.
type FileStore struct {
	path string
}

// Ensure FileStore implements the interface.
var _ driven.CredentialsStore = (*FileStore)(nil)

// NewFileStore creates a store backed by dir/tokens.json. If dir is empty,
// ~/.outlook-cli is used.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".outlook-cli")
	}
	return &FileStore{path: filepath.Join(dir, tokensFile)}, nil
}

// Path returns the location of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads all persisted records. A missing file yields an empty map.
func (s *FileStore) Load(_ context.Context) (map[string]domain.CredentialRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]domain.CredentialRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStoreUnavailable, s.path, err)
	}

	var records map[string]domain.CredentialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrCorruptStore, s.path, err)
	}
	if records == nil {
		records = map[string]domain.CredentialRecord{}
	}
	return records, nil
}

// Save atomically replaces the persisted record set and restricts the file
// to owner read/write. The previous state survives any failure before the
// final rename.
func (s *FileStore) Save(_ context.Context, records map[string]domain.CredentialRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrStoreUnavailable, dir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode records: %v", domain.ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, tokensFile+".*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", domain.ErrStoreUnavailable, err)
	}
	tmpPath := tmp.Name()

	// Tighten permissions before any secret bytes hit disk.
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod temp file: %v", domain.ErrStoreUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp file: %v", domain.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", domain.ErrStoreUnavailable, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", domain.ErrStoreUnavailable, s.path, err)
	}
	return nil
}

// Delete removes one account's record. Absent accounts are a no-op.
func (s *FileStore) Delete(ctx context.Context, account string) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := records[account]; !ok {
		return nil
	}
	delete(records, account)
	return s.Save(ctx, records)
}
