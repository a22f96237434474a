// Package storage provides persistent storage for trained model artifacts and
// training run history. It uses BoltDB as the underlying storage engine.
//
// Artifacts are stored as opaque JSON payloads keyed by version so the
// package stays independent of the model representation. Training runs are
// keyed by "timestamp_id" for ordered range scans.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"burnout-risk/internal/common"

	"go.etcd.io/bbolt"
)

const (
	artifactsBucket = "artifacts" // version -> artifact JSON
	runsBucket      = "runs"      // timestamp_id -> TrainingRun JSON
	metaBucket      = "meta"      // registry metadata

	activeKey = "active_version"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides persistent storage backed by BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (creating if needed) the registry database under dataPath and
// ensures all buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, common.RegistryDBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{artifactsBucket, runsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// PutArtifact stores an artifact payload under version, replacing any
// existing payload.
func (s *Store) PutArtifact(version string, payload []byte) error {
	if version == "" {
		return fmt.Errorf("artifact version is required")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(artifactsBucket)).Put([]byte(version), payload)
	})
}

// GetArtifact returns the payload stored under version.
func (s *Store) GetArtifact(version string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(artifactsBucket)).Get([]byte(version))
		if v == nil {
			return fmt.Errorf("artifact %s: %w", version, ErrNotFound)
		}
		// Bolt values are only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// ListArtifacts returns every stored payload in key order.
func (s *Store) ListArtifacts() ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(artifactsBucket)).ForEach(func(_, v []byte) error {
			out = append(out, append([]byte(nil), v...))
			return nil
		})
	})
	return out, err
}

// SetActive records version as the active artifact.
func (s *Store) SetActive(version string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(artifactsBucket)).Get([]byte(version)) == nil {
			return fmt.Errorf("artifact %s: %w", version, ErrNotFound)
		}
		return tx.Bucket([]byte(metaBucket)).Put([]byte(activeKey), []byte(version))
	})
}

// Active returns the active version, or ErrNotFound if none was set.
func (s *Store) Active() (string, error) {
	var version string
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(metaBucket)).Get([]byte(activeKey))
		if v == nil {
			return fmt.Errorf("active version: %w", ErrNotFound)
		}
		version = string(v)
		return nil
	})
	return version, err
}
