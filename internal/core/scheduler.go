package core

// scheduler.go runs the background autosave for the store.
//
// The autosave checks the store version on every tick and writes the
// document only when the version has moved since the last save. On context
// cancellation it performs one final save, so a graceful shutdown keeps the
// latest state. A failed save is logged and retried on the next tick.

import (
	"context"
	"time"
)

// DefaultAutosaveInterval is used when no interval is configured.
const DefaultAutosaveInterval = 30 * time.Second

// StartAutosave blocks, saving the store to path every interval while it has
// changed, until ctx is cancelled. Run it on its own goroutine.
func (s *Store) StartAutosave(ctx context.Context, path string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	s.logger.Info("autosave started", "path", path, "interval", interval.String())

	saved := s.Version()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.runAutosave(path, &saved)
			s.logger.Info("autosave stopped", "version", saved)
			return
		case <-ticker.C:
			s.runAutosave(path, &saved)
		}
	}
}

// runAutosave saves once if the store moved past *saved.
func (s *Store) runAutosave(path string, saved *uint64) {
	version := s.Version()
	if version == *saved {
		return
	}

	start := time.Now()
	if err := SaveDocument(path, s.Document()); err != nil {
		s.logger.Error("autosave failed", "path", path, "error", err)
		return
	}
	*saved = version

	s.logger.Debug("autosave completed",
		"version", version,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
