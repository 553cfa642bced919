package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// RecordingPattern matches files written by the microphone.
const RecordingPattern = "**/recording-*.wav"

// Recording is an audio file left on disk.
type Recording struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FindRecordings returns the files under dir matching pattern, oldest first.
// A missing dir yields no recordings.
func FindRecordings(dir, pattern string) ([]Recording, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	if _, err := os.Stat(dir); errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}

	var out []Recording
	err := doublestar.GlobWalk(os.DirFS(dir), pattern, func(path string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Recording{
			Path:    filepath.Join(dir, filepath.FromSlash(path)),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find recordings: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// PruneRecordings deletes recordings under dir last modified more than
// maxAge before now and returns their paths.
func PruneRecordings(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	recs, err := FindRecordings(dir, RecordingPattern)
	if err != nil {
		return nil, err
	}
	cutoff := now.Add(-maxAge)
	var removed []string
	var errs []error
	for _, r := range recs {
		if !r.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(r.Path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, r.Path)
	}
	return removed, errors.Join(errs...)
}
