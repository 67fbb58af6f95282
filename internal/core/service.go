// Package core owns the latest snapshot artifact and its refresh
// lifecycle. It has no HTTP dependencies and can back any frontend.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetsnap/internal/archive"
	"github.com/JonMunkholm/sheetsnap/internal/logging"
	"github.com/JonMunkholm/sheetsnap/internal/snapshot"
	"github.com/google/uuid"
)

// ErrNotReady is returned by Latest before the first successful refresh.
var ErrNotReady = errors.New("no snapshot available yet")

// Snapshot is one serialized artifact plus the bookkeeping the server and
// archive need.
type Snapshot struct {
	Data      []byte
	Digest    string
	Refreshed time.Time
}

// Service builds snapshots on demand and keeps the most recent one.
type Service struct {
	builder   *snapshot.Builder
	store     *archive.Store // nil when archiving is disabled
	retention time.Duration  // zero keeps archived runs forever

	mu     sync.RWMutex
	latest *Snapshot
}

// NewService creates a Service. store may be nil.
func NewService(builder *snapshot.Builder, store *archive.Store) *Service {
	return &Service{builder: builder, store: store}
}

// SetArchiveRetention enables pruning of archived runs older than keep
// during scheduled refreshes. Zero (the zero value) disables pruning.
func (s *Service) SetArchiveRetention(keep time.Duration) {
	s.retention = keep
}

// Refresh runs one acquisition, validates the serialized document against
// the snapshot schema, and swaps it in as the latest artifact. A document
// that fails validation is never published. Archive write failures are
// logged, not fatal: the in-memory artifact is already current.
func (s *Service) Refresh(ctx context.Context) error {
	doc := s.builder.Build(ctx)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := snapshot.Validate(data); err != nil {
		return err
	}
	digest, err := doc.ContentDigest()
	if err != nil {
		return fmt.Errorf("digest snapshot: %w", err)
	}

	s.mu.Lock()
	changed := s.latest == nil || digest != s.latest.Digest
	s.latest = &Snapshot{Data: data, Digest: digest, Refreshed: time.Now()}
	s.mu.Unlock()

	logger := logging.FromContext(ctx)
	logger.Info("snapshot refreshed",
		"digest", digest,
		"changed", changed,
		"bytes", len(data),
		"quarter", doc.Meta.ReportingQuarter,
	)

	if s.store != nil {
		generatedAt, perr := time.Parse(time.RFC3339, doc.Meta.GeneratedAt)
		if perr != nil {
			generatedAt = time.Now().UTC()
		}
		run := archive.Run{
			ID:               uuid.New(),
			GeneratedAt:      generatedAt,
			ReportingQuarter: doc.Meta.ReportingQuarter,
			ContentDigest:    digest,
			Document:         data,
		}
		if err := s.store.Record(ctx, run); err != nil {
			logger.Error("snapshot archive write failed", "error", err)
		}
	}

	return nil
}

// Latest returns the most recent snapshot, or ErrNotReady before the first
// successful refresh (or seed).
func (s *Service) Latest() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNotReady
	}
	return s.latest, nil
}

// Seed installs a previously archived snapshot as the latest artifact,
// but never replaces one produced by a newer refresh. Used at startup so
// the server has something to serve before the first fetch completes.
func (s *Service) Seed(data []byte, digest string, refreshed time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest != nil && s.latest.Refreshed.After(refreshed) {
		return
	}
	s.latest = &Snapshot{Data: data, Digest: digest, Refreshed: refreshed}
}
