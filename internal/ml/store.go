package ml

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"burnout-risk/internal/common"

	"github.com/rs/zerolog/log"
)

// StoreMetrics receives model lifecycle measurements.
type StoreMetrics interface {
	ModelLoadedSet(loaded bool)
	ModelAgeSet(seconds float64)
	ModelReloadsInc(success bool)
}

// ModelStore holds the serving artifact behind an atomic pointer. Readers
// never lock; a reload swaps in a fully built artifact, so in-flight
// predictions keep the one they started with.
type ModelStore struct {
	path    string
	current atomic.Pointer[Artifact]
	metrics StoreMetrics
}

// Health describes the serving state of the store.
type Health struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"model_loaded"`
	ModelPath    string `json:"model_path"`
	ModelExists  bool   `json:"model_exists"`
	ModelVersion string `json:"model_version,omitempty"`
}

// NewModelStore creates an empty store that loads from path. metrics may be nil.
func NewModelStore(path string, metrics StoreMetrics) *ModelStore {
	return &ModelStore{path: path, metrics: metrics}
}

// Path returns the artifact path the store loads from.
func (s *ModelStore) Path() string {
	return s.path
}

// Load reads the artifact at the configured path and swaps it in. On failure
// the previously loaded artifact, if any, stays in place.
func (s *ModelStore) Load() error {
	a, err := LoadArtifact(s.path)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ModelReloadsInc(false)
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("model path %s not found: %w", s.path, common.ErrModelUnavailable)
		}
		return fmt.Errorf("load model %s: %w", s.path, err)
	}

	s.swap(a)
	if s.metrics != nil {
		s.metrics.ModelReloadsInc(true)
	}
	log.Info().Str("model_path", s.path).Str("version", a.Version).Int("features", len(a.Features)).Msg("Model artifact loaded")
	return nil
}

// Reload re-reads the configured path. It is Load under the name the serving
// layer uses.
func (s *ModelStore) Reload() error {
	return s.Load()
}

// Swap validates a and installs a private copy of it.
func (s *ModelStore) Swap(a *Artifact) error {
	if a == nil {
		return fmt.Errorf("swap: nil artifact")
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	s.swap(a.Clone())
	return nil
}

func (s *ModelStore) swap(a *Artifact) {
	s.current.Store(a)
	if s.metrics != nil {
		s.metrics.ModelLoadedSet(true)
		if !a.CreatedAt.IsZero() {
			s.metrics.ModelAgeSet(time.Since(a.CreatedAt).Seconds())
		}
	}
}

// Current returns the loaded artifact or common.ErrModelUnavailable. The
// returned artifact must be treated as read-only.
func (s *ModelStore) Current() (*Artifact, error) {
	if s == nil {
		return nil, common.ErrModelUnavailable
	}
	a := s.current.Load()
	if a == nil {
		return nil, fmt.Errorf("no model artifact loaded: %w", common.ErrModelUnavailable)
	}
	return a, nil
}

// Health reports whether an artifact is loaded and where it comes from.
func (s *ModelStore) Health() Health {
	h := Health{Status: "ok", ModelPath: s.path}
	if _, err := os.Stat(s.path); err == nil {
		h.ModelExists = true
	}
	if a := s.current.Load(); a != nil {
		h.ModelLoaded = true
		h.ModelVersion = a.Version
	}
	return h
}
