package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"burnout-risk/internal/storage"

	"github.com/rs/zerolog/log"
)

// VersionInfo summarises a registered artifact
type VersionInfo struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Metrics   Metrics   `json:"metrics"`
	Rows      int       `json:"training_rows"`
	IsActive  bool      `json:"is_active"`
}

// Registry handles artifact versioning and rollback on top of the bbolt store
type Registry struct {
	store *storage.Store
}

// NewRegistry creates a registry over an open store
func NewRegistry(store *storage.Store) *Registry {
	return &Registry{store: store}
}

// Register stores an artifact under its version without activating it
func (r *Registry) Register(a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("register: marshal artifact: %w", err)
	}
	if err := r.store.PutArtifact(a.Version, data); err != nil {
		return fmt.Errorf("register %s: %w", a.Version, err)
	}
	log.Info().Str("version", a.Version).Msg("Registered model artifact")
	return nil
}

// Activate marks version as the active artifact
func (r *Registry) Activate(version string) error {
	if err := r.store.SetActive(version); err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	log.Info().Str("version", version).Msg("Activated model version")
	return nil
}

// Get returns the artifact registered under version
func (r *Registry) Get(version string) (*Artifact, error) {
	data, err := r.store.GetArtifact(version)
	if err != nil {
		return nil, err
	}
	return DecodeArtifact(data)
}

// Active returns the active artifact, or storage.ErrNotFound if none is set
func (r *Registry) Active() (*Artifact, error) {
	version, err := r.store.Active()
	if err != nil {
		return nil, err
	}
	return r.Get(version)
}

// List returns every registered version, newest first
func (r *Registry) List() ([]VersionInfo, error) {
	payloads, err := r.store.ListArtifacts()
	if err != nil {
		return nil, err
	}
	active, err := r.store.Active()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	versions := make([]VersionInfo, 0, len(payloads))
	for _, p := range payloads {
		a, err := DecodeArtifact(p)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping unreadable registry entry")
			continue
		}
		versions = append(versions, VersionInfo{
			Version:   a.Version,
			CreatedAt: a.CreatedAt,
			Metrics:   a.Metrics,
			Rows:      a.TrainingRows,
			IsActive:  a.Version == active,
		})
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions, nil
}

// Rollback activates the version registered just before the active one and
// returns it
func (r *Registry) Rollback() (*Artifact, error) {
	versions, err := r.List()
	if err != nil {
		return nil, err
	}
	if len(versions) < 2 {
		return nil, fmt.Errorf("no previous version available for rollback")
	}

	currentIdx := -1
	for i, v := range versions {
		if v.IsActive {
			currentIdx = i
			break
		}
	}
	if currentIdx == -1 {
		return nil, fmt.Errorf("no active version found")
	}
	if currentIdx+1 >= len(versions) {
		return nil, fmt.Errorf("no previous version available")
	}

	prev := versions[currentIdx+1].Version
	if err := r.Activate(prev); err != nil {
		return nil, err
	}
	return r.Get(prev)
}

// RecordRun stores the outcome of a training run, skipped runs included
func (r *Registry) RecordRun(res *TrainResult) error {
	run := storage.TrainingRun{
		ID:          res.ID,
		Timestamp:   res.StartedAt,
		Status:      string(res.Status),
		Reason:      res.Reason,
		Rows:        res.Rows,
		Positives:   res.Positives,
		Negatives:   res.Negatives,
		Folds:       res.Metrics.Folds,
		ScoredFolds: res.Metrics.ScoredFolds,
	}
	if res.Metrics.Defined {
		run.ROCAUC = res.Metrics.ROCAUC
		run.PRAUC = res.Metrics.PRAUC
	}
	if res.Artifact != nil {
		run.Version = res.Artifact.Version
	}
	return r.store.StoreRun(run)
}

// Runs returns training runs recorded since the given time, oldest first. A
// zero since returns every run.
func (r *Registry) Runs(since time.Time) ([]storage.TrainingRun, error) {
	if since.IsZero() {
		since = time.Unix(0, 0)
	}
	return r.store.GetRunsInRange(since, time.Now().Add(time.Minute))
}
