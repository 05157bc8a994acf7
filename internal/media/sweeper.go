// AngelaMos | 2026
// sweeper.go

package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const keepFile = ".gitkeep"

// Sweeper removes stale files left in the upload temp dir by interrupted
// requests.
type Sweeper struct {
	dir    string
	maxAge time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewSweeper(dir string, maxAge time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		dir:    dir,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("temp uploads swept", "removed", n)
			}
		}
	}
}

func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("read temp dir", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == keepFile {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		p := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(p); err != nil {
			s.logger.Warn("remove temp file", "path", p, "error", err)
			continue
		}
		removed++
	}

	return removed
}
