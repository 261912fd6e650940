package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cutline/cutline-agent/internal/probe"
	"github.com/cutline/cutline-agent/internal/timeline"
)

// LibraryService is the surface the API layer programs against.
type LibraryService interface {
	AddSector(ctx context.Context, name, sourcePath string) (*Sector, error)
	RemoveSector(ctx context.Context, id string) error
	GetSectors(ctx context.Context) ([]*Sector, error)
	GetSector(ctx context.Context, id string) (*Sector, error)
	GetTracks(ctx context.Context, sectorID string) ([]*timeline.Track, error)
	GetClip(ctx context.Context, id string) (*timeline.Clip, error)
	CountClips(ctx context.Context) (int, error)
	IngestFolder(ctx context.Context, sectorID, path string) (*Job, error)
	ExecuteIngest(ctx context.Context, jobID, sectorID, path string) error
}

// Metrics is the subset of instrumentation the service reports into.
type Metrics interface {
	ClipIngested()
	TrackCreated()
	ProbeFailed()
}

type Service struct {
	repo    Repository
	prober  probe.Prober
	engine  *timeline.Engine
	metrics Metrics
	logger  *slog.Logger
}

func NewService(repo Repository, prober probe.Prober, engine *timeline.Engine, metrics Metrics, logger *slog.Logger) *Service {
	if engine == nil {
		engine = timeline.NewEngine(nil, nil)
	}
	return &Service{repo: repo, prober: prober, engine: engine, metrics: metrics, logger: logger}
}

// AddSector creates a sector, optionally linked to a source folder. A
// sector already linked to the same folder is returned as-is.
func (s *Service) AddSector(ctx context.Context, name, sourcePath string) (*Sector, error) {
	if sourcePath != "" {
		absPath, err := filepath.Abs(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("invalid source path: %w", err)
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("source path does not exist: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source path is not a directory")
		}
		sourcePath = absPath

		existing, err := s.repo.GetSectorBySourcePath(ctx, sourcePath)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		if name == "" {
			name = filepath.Base(sourcePath)
		}
	}

	if name == "" {
		return nil, fmt.Errorf("sector name is required")
	}

	sector := &Sector{
		ID:         timeline.NewID(),
		Name:       name,
		SourcePath: sourcePath,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CreateSector(ctx, sector); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("sector created", "sector_id", sector.ID, "name", name, "source_path", sourcePath)
	}
	return sector, nil
}

func (s *Service) RemoveSector(ctx context.Context, id string) error {
	if err := s.repo.DeleteClipsBySector(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTracksBySector(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteSector(ctx, id)
}

func (s *Service) GetSectors(ctx context.Context) ([]*Sector, error) {
	return s.repo.ListSectors(ctx)
}

func (s *Service) GetSector(ctx context.Context, id string) (*Sector, error) {
	return s.repo.GetSector(ctx, id)
}

func (s *Service) GetTracks(ctx context.Context, sectorID string) ([]*timeline.Track, error) {
	return s.repo.ListTracks(ctx, sectorID)
}

func (s *Service) GetClip(ctx context.Context, id string) (*timeline.Clip, error) {
	return s.repo.GetClip(ctx, id)
}

func (s *Service) CountClips(ctx context.Context) (int, error) {
	return s.repo.CountClips(ctx)
}

// IngestFolder queues an ingest job for the folder. An empty path falls
// back to the sector's linked source folder.
func (s *Service) IngestFolder(ctx context.Context, sectorID, path string) (*Job, error) {
	sector, err := s.repo.GetSector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	if sector == nil {
		return nil, fmt.Errorf("sector not found")
	}

	if path == "" {
		path = sector.SourcePath
	}
	if path == "" {
		return nil, fmt.Errorf("no folder to ingest: sector has no linked source path")
	}

	now := time.Now()
	job := &Job{
		ID:        timeline.NewID(),
		Type:      JobTypeIngest,
		Status:    JobStatusPending,
		SectorID:  sectorID,
		Path:      path,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("ingest job created", "job_id", job.ID, "sector_id", sectorID, "path", path)
	}
	return job, nil
}

// ExecuteIngest walks the folder for video files not yet in the sector,
// probes each one, and runs the assignment engine over the batch. The
// sector's track list and the new clips are persisted as the engine
// placed them.
func (s *Service) ExecuteIngest(ctx context.Context, jobID, sectorID, path string) error {
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, "")
	if s.logger != nil {
		s.logger.Info("starting ingest", "job_id", jobID, "sector_id", sectorID, "path", path)
	}

	known, err := s.repo.ListClipPaths(ctx, sectorID)
	if err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && IsVideoFile(d.Name()) && !known[p] {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	total := len(files)
	if s.logger != nil {
		s.logger.Info("found new video files", "job_id", jobID, "count", total)
	}

	clips := make([]*timeline.Clip, 0, total)
	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		clips = append(clips, s.buildClip(ctx, filePath))
		s.repo.UpdateJobProgress(ctx, jobID, (i+1)*50/max(total, 1))
	}

	if err := s.assignAndPersist(ctx, sectorID, clips); err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	s.repo.UpdateJobProgress(ctx, jobID, 100)
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusCompleted, "")
	if s.logger != nil {
		s.logger.Info("ingest completed", "job_id", jobID, "clips", len(clips))
	}
	return nil
}

// buildClip probes one file and assembles the engine's input. A probe
// failure is not fatal: the clip is ingested without resolution data and
// the engine gives it its own camera lane.
func (s *Service) buildClip(ctx context.Context, filePath string) *timeline.Clip {
	clip := &timeline.Clip{
		ID:   timeline.NewID(),
		Name: filepath.Base(filePath),
		Path: filePath,
		Type: timeline.ClipVideo,
	}

	result, err := s.prober.Probe(ctx, filePath)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("probe failed, ingesting without metadata", "path", filePath, "error", err)
		}
		if s.metrics != nil {
			s.metrics.ProbeFailed()
		}
		return clip
	}

	clip.Probe = result.StreamData()
	if d := result.DurationSeconds(); d > 0 {
		clip.Duration = &d
	}
	if start, ok := result.StartSeconds(); ok {
		clip.StartTime = &start
	}
	return clip
}

func (s *Service) assignAndPersist(ctx context.Context, sectorID string, clips []*timeline.Clip) error {
	tracks, err := s.repo.ListTracks(ctx, sectorID)
	if err != nil {
		return err
	}

	sector := &timeline.Sector{ID: sectorID, Tracks: tracks}
	placements := s.engine.Assign(sector, clips)

	touched := make(map[string]*timeline.Track)
	for _, p := range placements {
		if p.Created {
			if err := s.repo.CreateTrack(ctx, sectorID, p.Track); err != nil {
				return fmt.Errorf("persist track: %w", err)
			}
			if s.metrics != nil {
				s.metrics.TrackCreated()
			}
			if s.logger != nil {
				s.logger.Info("track created",
					"sector_id", sectorID,
					"track_id", p.Track.ID,
					"name", p.Track.Name,
					"camera_id", p.Track.CameraID,
				)
			}
		}
		if err := s.repo.CreateClip(ctx, sectorID, p.Track.ID, p.Clip); err != nil {
			return fmt.Errorf("persist clip: %w", err)
		}
		if s.metrics != nil {
			s.metrics.ClipIngested()
		}
		touched[p.Track.ID] = p.Track
	}

	for _, t := range touched {
		if err := s.repo.UpdateTrackBounds(ctx, t); err != nil {
			return fmt.Errorf("persist track bounds: %w", err)
		}
	}
	return nil
}
