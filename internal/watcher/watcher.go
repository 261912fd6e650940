// Package watcher polls sector source folders for media that appeared
// after the last ingest and enqueues ingest jobs for them. Polling is
// deliberate: the folders are often on SD cards or network mounts where
// inotify either does not work or lies.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cutline/cutline-agent/internal/library"
)

// Library is the slice of the library service the watcher needs.
type Library interface {
	GetSectors(ctx context.Context) ([]*library.Sector, error)
	IngestFolder(ctx context.Context, sectorID, path string) (*library.Job, error)
}

// PathLister reports which clip paths a sector already contains.
type PathLister interface {
	ListClipPaths(ctx context.Context, sectorID string) (map[string]bool, error)
	ListPendingJobs(ctx context.Context) ([]*library.Job, error)
}

type Watcher struct {
	library  Library
	paths    PathLister
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func New(lib Library, paths PathLister, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		library:  lib,
		paths:    paths,
		interval: interval,
		logger:   logger.With("component", "watcher"),
	}
}

// Start launches the polling loop. It returns immediately; the loop runs
// until Stop is called or the parent context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.loop(ctx)
	w.logger.Info("watcher started", "interval", w.interval.String())
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	done := w.done
	w.running = false
	w.mu.Unlock()

	<-done
	w.logger.Info("watcher stopped")
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan walks every sector's source folder once and enqueues an ingest
// job for each sector with media the library has not seen. Exposed so
// callers can trigger an immediate pass without waiting for the ticker.
func (w *Watcher) Scan(ctx context.Context) {
	sectors, err := w.library.GetSectors(ctx)
	if err != nil {
		w.logger.Error("failed to list sectors", "error", err)
		return
	}

	busy, err := w.sectorsWithPendingWork(ctx)
	if err != nil {
		w.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	for _, sector := range sectors {
		if sector.SourcePath == "" || busy[sector.ID] {
			continue
		}

		fresh, err := w.countNewMedia(ctx, sector)
		if err != nil {
			w.logger.Warn("scan failed", "sector_id", sector.ID, "path", sector.SourcePath, "error", err)
			continue
		}
		if fresh == 0 {
			continue
		}

		job, err := w.library.IngestFolder(ctx, sector.ID, sector.SourcePath)
		if err != nil {
			w.logger.Error("failed to enqueue ingest", "sector_id", sector.ID, "error", err)
			continue
		}
		w.logger.Info("new media detected", "sector_id", sector.ID, "new_files", fresh, "job_id", job.ID)
	}
}

func (w *Watcher) sectorsWithPendingWork(ctx context.Context) (map[string]bool, error) {
	pending, err := w.paths.ListPendingJobs(ctx)
	if err != nil {
		return nil, err
	}
	busy := make(map[string]bool, len(pending))
	for _, job := range pending {
		if job.SectorID != "" {
			busy[job.SectorID] = true
		}
	}
	return busy, nil
}

func (w *Watcher) countNewMedia(ctx context.Context, sector *library.Sector) (int, error) {
	known, err := w.paths.ListClipPaths(ctx, sector.ID)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(sector.SourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != sector.SourcePath {
				return fs.SkipDir
			}
			return nil
		}
		if library.IsVideoFile(path) && !known[path] {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
