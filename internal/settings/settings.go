// Package settings persists per-user preferences to a JSON file so they
// survive restarts.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// Store keeps the auto-save flags, keyed by platform user id. All methods
// are safe for concurrent use.
type Store struct {
	path string
	log  *slog.Logger

	mu    sync.RWMutex
	flags map[string]bool
}

// NewStore loads the settings file at path, tolerating a missing file.
func NewStore(path string, log *slog.Logger) (*Store, error) {
	s := &Store{
		path:  path,
		log:   log.With(slog.String("service", "settings")),
		flags: make(map[string]bool),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.flags); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// AutoSave reports whether auto save is enabled for the user.
func (s *Store) AutoSave(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[userID]
}

// SetAutoSave updates the user's flag and writes the file through.
func (s *Store) SetAutoSave(userID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flags[userID] = enabled
	if err := s.save(); err != nil {
		return err
	}

	s.log.Info("auto save updated",
		slog.String("user_id", userID),
		slog.Bool("enabled", enabled))
	return nil
}

// ToggleAutoSave flips the user's flag and returns the new state.
func (s *Store) ToggleAutoSave(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := !s.flags[userID]
	s.flags[userID] = next
	if err := s.save(); err != nil {
		return false, err
	}
	return next, nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.flags, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
