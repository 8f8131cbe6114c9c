// Package filestore writes exported conversation transcripts to disk.
// Adapted from the in-memory session's ExportJSON artifact: one JSON file
// per export, created exclusively so an export never clobbers an earlier
// one.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wikiqa/internal/logging"
	"wikiqa/internal/session"
)

// Store persists transcript exports under one base directory.
type Store struct {
	baseDir string
	logger  logging.Logger
}

// New creates the base directory if needed and returns a Store. A leading
// "~/" expands to the user's home directory.
func New(baseDir string, logger logging.Logger) (*Store, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logging.OrNop(logger),
	}, nil
}

// Dir returns the resolved base directory.
func (s *Store) Dir() string { return s.baseDir }

// Export writes the session's transcript artifact and returns its path.
// An empty session produces no file and no error; the empty path signals
// "nothing to export".
func (s *Store) Export(sess *session.Session) (string, error) {
	data, filename, ok := sess.ExportJSON()
	if !ok {
		return "", nil
	}

	path := filepath.Join(s.baseDir, filename)

	// O_EXCL: exports are timestamped to the second, so a collision means
	// two exports raced; keep the first.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create transcript file: %w", err)
	}
	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return "", fmt.Errorf("write transcript: %w", writeErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("close transcript file: %w", closeErr)
	}

	s.logger.Info("exported %d bytes to %s", len(data), path)
	return path, nil
}

// List returns the transcript filenames currently in the store, in
// directory order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
