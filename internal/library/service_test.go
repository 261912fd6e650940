package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cutline/cutline-agent/internal/db"
	"github.com/cutline/cutline-agent/internal/probe"
	"github.com/cutline/cutline-agent/internal/timeline"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func probeResult(width, height int, start, duration string) *probe.Result {
	return &probe.Result{
		Streams: []probe.Stream{{CodecType: "video", CodecName: "h264", Width: width, Height: height}},
		Format:  probe.Format{StartTime: start, Duration: duration},
	}
}

func TestService_AddSector(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)

	tmpDir := t.TempDir()
	sector, err := svc.AddSector(context.Background(), "Interview Day", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}

	if sector.ID == "" {
		t.Error("sector.ID is empty")
	}
	if sector.Name != "Interview Day" {
		t.Errorf("sector.Name = %s, want Interview Day", sector.Name)
	}
	if sector.SourcePath != tmpDir {
		t.Errorf("sector.SourcePath = %s, want %s", sector.SourcePath, tmpDir)
	}
}

func TestService_AddSector_NameFromFolder(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)

	tmpDir := t.TempDir()
	sector, err := svc.AddSector(context.Background(), "", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	if sector.Name != filepath.Base(tmpDir) {
		t.Errorf("sector.Name = %s, want %s", sector.Name, filepath.Base(tmpDir))
	}
}

func TestService_AddSector_DedupBySourcePath(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)
	tmpDir := t.TempDir()

	first, err := svc.AddSector(context.Background(), "A", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	second, err := svc.AddSector(context.Background(), "B", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() second call error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second.ID = %s, want existing %s", second.ID, first.ID)
	}
}

func TestService_AddSector_InvalidPath(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)

	if _, err := svc.AddSector(context.Background(), "Test", "/nonexistent/path"); err == nil {
		t.Error("AddSector() should return error for nonexistent path")
	}
}

func TestService_AddSector_NameRequired(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)

	if _, err := svc.AddSector(context.Background(), "", ""); err == nil {
		t.Error("AddSector() should require a name when no source path is given")
	}
}

func TestService_IngestFolder_CreatesJob(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)
	tmpDir := t.TempDir()

	sector, err := svc.AddSector(context.Background(), "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}

	job, err := svc.IngestFolder(context.Background(), sector.ID, "")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}

	if job.Type != JobTypeIngest {
		t.Errorf("job.Type = %s, want %s", job.Type, JobTypeIngest)
	}
	if job.Status != JobStatusPending {
		t.Errorf("job.Status = %s, want %s", job.Status, JobStatusPending)
	}
	if job.Path != tmpDir {
		t.Errorf("job.Path = %s, want sector source path %s", job.Path, tmpDir)
	}
}

func TestService_IngestFolder_UnknownSector(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, &probe.StubProber{}, nil, nil, nil)

	if _, err := svc.IngestFolder(context.Background(), "missing", "/tmp"); err == nil {
		t.Error("IngestFolder() should fail for unknown sector")
	}
}

func TestService_ExecuteIngest_AssignsTracks(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	tmpDir := t.TempDir()
	pathA := writeFile(t, tmpDir, "a.mp4")
	pathB := writeFile(t, tmpDir, "b.mp4")
	pathC := writeFile(t, tmpDir, "c.mp4")

	prober := &probe.StubProber{Results: map[string]*probe.Result{
		pathA: probeResult(1920, 1080, "0.000000", "10.000000"),
		pathB: probeResult(1920, 1080, "100.000000", "10.000000"),
		pathC: probeResult(1280, 720, "0.000000", "10.000000"),
	}}

	svc := NewService(repo, prober, nil, nil, nil)
	ctx := context.Background()

	sector, err := svc.AddSector(ctx, "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	job, err := svc.IngestFolder(ctx, sector.ID, "")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}

	if err := svc.ExecuteIngest(ctx, job.ID, sector.ID, tmpDir); err != nil {
		t.Fatalf("ExecuteIngest() error = %v", err)
	}

	tracks, err := svc.GetTracks(ctx, sector.ID)
	if err != nil {
		t.Fatalf("GetTracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(tracks))
	}

	first := tracks[0]
	if first.Name != "Camera 1" || first.CameraID != "1920x1080" {
		t.Errorf("first track = %s/%s, want Camera 1/1920x1080", first.Name, first.CameraID)
	}
	if len(first.Clips) != 2 {
		t.Errorf("first track clips = %d, want 2", len(first.Clips))
	}
	if first.StartTime != 0 || first.EndTime != 110 {
		t.Errorf("first track bounds = [%v, %v], want [0, 110]", first.StartTime, first.EndTime)
	}
	if first.CombinedDuration != 20 {
		t.Errorf("first track combined duration = %v, want 20", first.CombinedDuration)
	}

	second := tracks[1]
	if second.Name != "Camera 2" || second.CameraID != "1280x720" {
		t.Errorf("second track = %s/%s, want Camera 2/1280x720", second.Name, second.CameraID)
	}
	if len(second.Clips) != 1 {
		t.Errorf("second track clips = %d, want 1", len(second.Clips))
	}

	done, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if done.Status != JobStatusCompleted {
		t.Errorf("job.Status = %s, want %s", done.Status, JobStatusCompleted)
	}
	if done.Progress != 100 {
		t.Errorf("job.Progress = %d, want 100", done.Progress)
	}
}

func TestService_ExecuteIngest_SkipsKnownFiles(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	tmpDir := t.TempDir()
	pathA := writeFile(t, tmpDir, "a.mp4")

	prober := &probe.StubProber{Results: map[string]*probe.Result{
		pathA: probeResult(1920, 1080, "0.000000", "10.000000"),
	}}

	svc := NewService(repo, prober, nil, nil, nil)
	ctx := context.Background()

	sector, err := svc.AddSector(ctx, "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		job, err := svc.IngestFolder(ctx, sector.ID, "")
		if err != nil {
			t.Fatalf("IngestFolder() error = %v", err)
		}
		if err := svc.ExecuteIngest(ctx, job.ID, sector.ID, tmpDir); err != nil {
			t.Fatalf("ExecuteIngest() run %d error = %v", i, err)
		}
	}

	count, err := svc.CountClips(ctx)
	if err != nil {
		t.Fatalf("CountClips() error = %v", err)
	}
	if count != 1 {
		t.Errorf("clip count after re-ingest = %d, want 1", count)
	}

	tracks, _ := svc.GetTracks(ctx, sector.ID)
	if len(tracks) != 1 {
		t.Errorf("tracks after re-ingest = %d, want 1", len(tracks))
	}
}

type failingProber struct{}

func (failingProber) Probe(ctx context.Context, path string) (*probe.Result, error) {
	return nil, errors.New("probe exploded")
}

func TestService_ExecuteIngest_ProbeFailureStillIngests(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "broken.mp4")

	svc := NewService(repo, failingProber{}, nil, nil, nil)
	ctx := context.Background()

	sector, err := svc.AddSector(ctx, "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	job, err := svc.IngestFolder(ctx, sector.ID, "")
	if err != nil {
		t.Fatalf("IngestFolder() error = %v", err)
	}

	if err := svc.ExecuteIngest(ctx, job.ID, sector.ID, tmpDir); err != nil {
		t.Fatalf("ExecuteIngest() error = %v", err)
	}

	tracks, err := svc.GetTracks(ctx, sector.ID)
	if err != nil {
		t.Fatalf("GetTracks() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	// No resolution data, so the clip gets a synthetic camera lane.
	if !timeline.IsCameraToken(tracks[0].CameraID) {
		t.Errorf("camera id = %q, want synthetic camera token", tracks[0].CameraID)
	}
	if len(tracks[0].Clips) != 1 {
		t.Errorf("clips = %d, want 1", len(tracks[0].Clips))
	}
}

func TestService_RemoveSector(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	tmpDir := t.TempDir()
	pathA := writeFile(t, tmpDir, "a.mp4")

	prober := &probe.StubProber{Results: map[string]*probe.Result{
		pathA: probeResult(1920, 1080, "0.000000", "10.000000"),
	}}

	svc := NewService(repo, prober, nil, nil, nil)
	ctx := context.Background()

	sector, err := svc.AddSector(ctx, "Shoot", tmpDir)
	if err != nil {
		t.Fatalf("AddSector() error = %v", err)
	}
	job, _ := svc.IngestFolder(ctx, sector.ID, "")
	if err := svc.ExecuteIngest(ctx, job.ID, sector.ID, tmpDir); err != nil {
		t.Fatalf("ExecuteIngest() error = %v", err)
	}

	if err := svc.RemoveSector(ctx, sector.ID); err != nil {
		t.Fatalf("RemoveSector() error = %v", err)
	}

	sectors, _ := svc.GetSectors(ctx)
	if len(sectors) != 0 {
		t.Errorf("sectors = %d, want 0", len(sectors))
	}
	count, _ := svc.CountClips(ctx)
	if count != 0 {
		t.Errorf("clips = %d, want 0", count)
	}
	tracks, _ := svc.GetTracks(ctx, sector.ID)
	if len(tracks) != 0 {
		t.Errorf("tracks = %d, want 0", len(tracks))
	}
}
