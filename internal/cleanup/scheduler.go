package cleanup

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Scheduler removes uploads and engine work directories that outlived their
// request, such as files left behind by a crash between save and release
type Scheduler struct {
	tempDir  string
	interval time.Duration
	maxAge   time.Duration
	logger   *slog.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates a new cleanup scheduler
func NewScheduler(tempDir string, interval, maxAge time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tempDir:  tempDir,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval
func (s *Scheduler) Start() {
	s.logger.Info("Running initial temp file cleanup", slog.String("dir", s.tempDir))
	s.Sweep(time.Now())

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				s.Sweep(now)
			case <-s.stopChan:
				return
			}
		}
	}()

	s.logger.Info("Cleanup scheduler started",
		slog.Duration("interval", s.interval),
		slog.Duration("max_age", s.maxAge),
	)
}

// Stop stops the scheduler and waits for a running sweep
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info("Cleanup scheduler stopped")
	})
}

// Sweep removes entries this service created in the temp directory and
// last touched more than maxAge before now: uploads named <uuid><ext> and
// whisper-* work directories. Anything else in the directory is left
// alone. It returns the number of entries removed.
func (s *Scheduler) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Error during cleanup", slog.String("error", err.Error()))
		}
		return 0
	}

	var (
		deletedCount int
		deletedSize  int64
	)
	for _, entry := range entries {
		path := filepath.Join(s.tempDir, entry.Name())

		var (
			modTime time.Time
			size    int64
		)
		switch {
		case entry.Type().IsRegular() && isUploadName(entry.Name()):
			info, err := entry.Info()
			if err != nil {
				continue
			}
			modTime, size = info.ModTime(), info.Size()
		case entry.IsDir() && strings.HasPrefix(entry.Name(), workDirPrefix):
			modTime, size = newestModTime(path)
		default:
			continue
		}

		age := now.Sub(modTime)
		if age <= s.maxAge {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn("Failed to delete old entry", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		deletedCount++
		deletedSize += size
		s.logger.Debug("Deleted old temp entry",
			slog.String("name", entry.Name()),
			slog.Duration("age", age.Round(time.Second)),
		)
	}

	if deletedCount > 0 {
		s.logger.Info("Cleanup complete",
			slog.Int("entries", deletedCount),
			slog.String("freed", humanize.Bytes(uint64(deletedSize))),
		)
	}
	return deletedCount
}

// workDirPrefix names the per-call directories of the Whisper engine
const workDirPrefix = "whisper-"

// isUploadName reports whether name looks like a stored upload, a hyphenated
// UUID with an optional extension
func isUploadName(name string) bool {
	id := strings.TrimSuffix(name, filepath.Ext(name))
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// newestModTime returns the latest modification time of dir and anything
// inside it, plus the total size of its files
func newestModTime(dir string) (time.Time, int64) {
	var (
		newest time.Time
		size   int64
	)
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		if !d.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return newest, size
}
