package library

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cutline/cutline-agent/internal/probe"
)

func runnerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_ProcessNextJob_Ingest(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	tmpDir := t.TempDir()
	pathA := writeFile(t, tmpDir, "a.mp4")

	prober := &probe.StubProber{Results: map[string]*probe.Result{
		pathA: probeResult(1920, 1080, "0.000000", "10.000000"),
	}}
	svc := NewService(repo, prober, nil, nil, runnerLogger())
	runner := NewRunner(svc, repo, runnerLogger())

	ctx := context.Background()
	sector, err := svc.AddSector(ctx, "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	job, err := svc.IngestFolder(ctx, sector.ID, "")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}

	runner.processNextJob(ctx)

	done, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if done.Status != JobStatusCompleted {
		t.Errorf("job.Status = %s, want %s", done.Status, JobStatusCompleted)
	}

	tracks, _ := svc.GetTracks(ctx, sector.ID)
	if len(tracks) != 1 {
		t.Errorf("tracks = %d, want 1", len(tracks))
	}
}

func TestRunner_ProcessNextJob_MissingSector(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, runnerLogger())
	runner := NewRunner(svc, repo, runnerLogger())

	ctx := context.Background()
	job := &Job{ID: "j1", Type: JobTypeIngest, Status: JobStatusPending, SectorID: "ghost", Path: "/tmp"}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}

	runner.processNextJob(ctx)

	done, _ := repo.GetJob(ctx, job.ID)
	if done.Status != JobStatusFailed {
		t.Errorf("job.Status = %s, want %s", done.Status, JobStatusFailed)
	}
}

func TestRunner_PauseResume(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, runnerLogger())
	runner := NewRunner(svc, repo, runnerLogger())

	if runner.IsPaused() {
		t.Error("runner should start unpaused")
	}
	runner.Pause()
	if !runner.IsPaused() {
		t.Error("runner should be paused after Pause()")
	}
	runner.Resume()
	if runner.IsPaused() {
		t.Error("runner should be unpaused after Resume()")
	}
}

func TestRunner_GetActiveJobCount(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, runnerLogger())
	runner := NewRunner(svc, repo, runnerLogger())

	ctx := context.Background()
	jobs := []*Job{
		{ID: "j1", Type: JobTypeIngest, Status: JobStatusRunning},
		{ID: "j2", Type: JobTypeIngest, Status: JobStatusPending},
		{ID: "j3", Type: JobTypeIngest, Status: JobStatusCompleted},
	}
	for _, j := range jobs {
		if err := repo.CreateJob(ctx, j); err != nil {
			t.Fatalf("CreateJob(%s) error = %v", j.ID, err)
		}
		if err := repo.UpdateJobStatus(ctx, j.ID, j.Status, ""); err != nil {
			t.Fatalf("UpdateJobStatus(%s) error = %v", j.ID, err)
		}
	}

	if got := runner.GetActiveJobCount(ctx); got != 1 {
		t.Errorf("GetActiveJobCount() = %d, want 1", got)
	}
}
