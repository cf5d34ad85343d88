package sharestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore writes one pretty-printed JSON document per share under a base
// directory, named share_<share_id>.share per §6's literal layout.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir, creating the
// directory if it does not already exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.WithMessage(err, "sharestore: failed to create base directory")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (fs *FileStore) path(shareID string) string {
	return filepath.Join(fs.baseDir, "share_"+shareID+".share")
}

// Save writes share atomically: serialize to a temp file in the same
// directory, then os.Rename it into place, so a crash mid-write never
// leaves a corrupt half-written share. I/O failures here are the
// PersistFailed boundary named in §7.
func (fs *FileStore) Save(share *SavedShare) error {
	if share == nil || share.ShareID == "" {
		return errors.New("sharestore: share missing share_id")
	}
	data, err := json.MarshalIndent(share, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "sharestore: failed to marshal share")
	}

	tmp, err := os.CreateTemp(fs.baseDir, "share_*.tmp")
	if err != nil {
		return errors.WithMessage(err, "sharestore: failed to create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.WithMessage(err, "sharestore: failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.WithMessage(err, "sharestore: failed to close temp file")
	}
	if err := os.Rename(tmpPath, fs.path(share.ShareID)); err != nil {
		os.Remove(tmpPath)
		return errors.WithMessage(err, "sharestore: failed to rename temp file into place")
	}
	return nil
}

// Load reads and parses the SavedShare for shareID.
func (fs *FileStore) Load(shareID string) (*SavedShare, error) {
	data, err := os.ReadFile(fs.path(shareID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.WithMessage(err, "sharestore: failed to read share file")
	}
	var share SavedShare
	if err := json.Unmarshal(data, &share); err != nil {
		return nil, errors.WithMessage(err, "sharestore: failed to unmarshal share file")
	}
	return &share, nil
}

// Delete removes the share file for shareID.
func (fs *FileStore) Delete(shareID string) error {
	if err := os.Remove(fs.path(shareID)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.WithMessage(err, "sharestore: failed to remove share file")
	}
	return nil
}
