package storage

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bobarin/clipforge/internal/clipaddr"
)

// SweepResult summarizes one local-tier cleanup pass.
type SweepResult struct {
	Scanned int
	Deleted int
	Freed   int64
}

// SweepLocal deletes clip files in dir whose modification time is older than
// maxAge. Only files matching the clip naming convention are considered, and
// the cutoff is fixed at sweep start so files written while the sweep runs
// are never candidates. Per-file failures are logged and skipped.
func SweepLocal(dir string, maxAge time.Duration) (SweepResult, error) {
	var result SweepResult

	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !clipaddr.IsClipFilename(entry.Name()) {
			continue
		}
		result.Scanned++

		info, err := entry.Info()
		if err != nil {
			log.Printf("[Sweep] Could not stat %s: %v", entry.Name(), err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[Sweep] Could not delete %s: %v", path, err)
			continue
		}

		result.Deleted++
		result.Freed += info.Size()
	}

	if result.Deleted > 0 {
		log.Printf("[Sweep] Deleted %d clip(s), freed %d bytes", result.Deleted, result.Freed)
	}
	return result, nil
}
