package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// File permission constants for cache operations.
const (
	cacheDirPerm  = 0o750
	cacheFilePerm = 0o600
)

// DefaultDirectory is the cache root used when none is configured.
const DefaultDirectory = "cache"

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrInvalidCacheKey = errors.New("invalid cache key")
	ErrCacheWrite      = errors.New("cache write failed")
)

// ClearFailure records one entry that ClearAll could not remove.
type ClearFailure struct {
	Key string
	Err error
}

// ClearError is returned when some entries survived a clear. Every other entry was still
// processed.
type ClearError struct {
	Failures []ClearFailure
}

// Error implements error.
func (e *ClearError) Error() string {
	keys := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		keys[i] = f.Key
	}
	return fmt.Sprintf("failed to remove %d cache entries: %s", len(e.Failures), strings.Join(keys, ", "))
}

// Unwrap exposes the individual removal errors to errors.Is and errors.As.
func (e *ClearError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// ClearReport summarizes a ClearAll run.
type ClearReport struct {
	// Removed is the number of entries deleted.
	Removed int
	// Skipped is the number of directory entries left alone because they are not cache entries.
	Skipped int
	// Failed is the number of entries that could not be deleted.
	Failed int
}

// Stats describes the current contents of the cache root.
type Stats struct {
	Entries int
	Bytes   int64
}

// FileStore keeps one file per cache key in a flat directory.
// Safe for concurrent use within a process; other processes are not coordinated.
type FileStore struct {
	// fs is the filesystem the cache root lives on.
	fs afero.Fs

	// directory is the cache root.
	directory string

	// mu serializes writes and clears against reads.
	mu sync.RWMutex
}

// NewFileStore creates a store rooted at directory. The directory is created on the first
// write, not here, so a read-only filesystem can still serve hits.
func NewFileStore(fs afero.Fs, directory string) (*FileStore, error) {
	if fs == nil {
		return nil, errors.New("cache filesystem cannot be nil")
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	return &FileStore{
		fs:        fs,
		directory: filepath.Clean(directory),
	}, nil
}

// NewOSFileStore is NewFileStore on the host filesystem.
func NewOSFileStore(directory string) (*FileStore, error) {
	return NewFileStore(afero.NewOsFs(), directory)
}

// Read returns the raw bytes stored under key.
// Returns ErrCacheNotFound if the entry doesn't exist.
func (s *FileStore) Read(key string) ([]byte, error) {
	if !IsKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCacheKey, key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := afero.ReadFile(s.fs, s.keyToFilePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Write stores data under key, creating the cache root if needed. An existing entry is
// overwritten in place.
func (s *FileStore) Write(key string, data []byte) error {
	if !IsKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidCacheKey, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.MkdirAll(s.directory, cacheDirPerm); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.keyToFilePath(key), data, cacheFilePerm); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Clear removes every file in the cache root whose name is a cache key. Other files and
// subdirectories are left untouched. A failed removal does not stop the others; the
// failures are returned together as a *ClearError.
func (s *FileStore) Clear() (ClearReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report ClearReport
	entries, err := afero.ReadDir(s.fs, s.directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, nil
		}
		return report, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var failures []ClearFailure
	for _, entry := range entries {
		if entry.IsDir() || !IsKey(entry.Name()) {
			report.Skipped++
			continue
		}

		if removeErr := s.fs.Remove(s.keyToFilePath(entry.Name())); removeErr != nil {
			if errors.Is(removeErr, os.ErrNotExist) {
				// removed concurrently by another process
				continue
			}
			failures = append(failures, ClearFailure{Key: entry.Name(), Err: removeErr})
			continue
		}
		report.Removed++
	}

	if len(failures) > 0 {
		report.Failed = len(failures)
		return report, &ClearError{Failures: failures}
	}
	return report, nil
}

// Stats counts the key-named entries and their total size.
func (s *FileStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	entries, err := afero.ReadDir(s.fs, s.directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsKey(entry.Name()) {
			continue
		}
		stats.Entries++
		stats.Bytes += entry.Size()
	}
	return stats, nil
}

// Keys lists the cache keys currently stored, sorted.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := afero.ReadDir(s.fs, s.directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && IsKey(entry.Name()) {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Directory returns the cache root.
func (s *FileStore) Directory() string {
	return s.directory
}

// keyToFilePath maps a validated key to its entry path.
func (s *FileStore) keyToFilePath(key string) string {
	return filepath.Join(s.directory, key)
}
