package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindLatest returns the most recently modified file in dir matching pattern.
// Editor lock files (~$...), hidden files and the exclude path are skipped, so a
// previous results file is never picked up as input.
func FindLatest(dir, pattern, exclude string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("invalid input pattern %q: %w", pattern, err)
	}

	excluded := ""
	if exclude != "" {
		if abs, err := filepath.Abs(exclude); err == nil {
			excluded = abs
		}
	}

	var (
		latest     string
		latestTime time.Time
	)
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "~") || strings.HasPrefix(base, ".") {
			continue
		}
		if abs, err := filepath.Abs(m); err == nil && abs == excluded {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest, latestTime = m, info.ModTime()
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: no %s in %s", ErrNoInputFile, pattern, dir)
	}
	return latest, nil
}
