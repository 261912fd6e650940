package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cutline/cutline-agent/internal/timeline"
)

type Repository interface {
	CreateSector(ctx context.Context, sector *Sector) error
	GetSector(ctx context.Context, id string) (*Sector, error)
	GetSectorBySourcePath(ctx context.Context, path string) (*Sector, error)
	ListSectors(ctx context.Context) ([]*Sector, error)
	DeleteSector(ctx context.Context, id string) error

	CreateTrack(ctx context.Context, sectorID string, track *timeline.Track) error
	UpdateTrackBounds(ctx context.Context, track *timeline.Track) error
	ListTracks(ctx context.Context, sectorID string) ([]*timeline.Track, error)
	DeleteTracksBySector(ctx context.Context, sectorID string) error

	CreateClip(ctx context.Context, sectorID, trackID string, clip *timeline.Clip) error
	GetClip(ctx context.Context, id string) (*timeline.Clip, error)
	ListClipPaths(ctx context.Context, sectorID string) (map[string]bool, error)
	DeleteClipsBySector(ctx context.Context, sectorID string) error
	CountClips(ctx context.Context) (int, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateSector(ctx context.Context, s *Sector) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sectors (id, name, source_path, created_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.Name, nullString(s.SourcePath), s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSector(ctx context.Context, id string) (*Sector, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, source_path, created_at FROM sectors WHERE id = ?
	`, id)
	return scanSector(row)
}

func (r *SQLiteRepository) GetSectorBySourcePath(ctx context.Context, path string) (*Sector, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, source_path, created_at FROM sectors WHERE source_path = ?
	`, path)
	return scanSector(row)
}

func scanSector(row *sql.Row) (*Sector, error) {
	var s Sector
	var sourcePath sql.NullString
	var createdAt string

	err := row.Scan(&s.ID, &s.Name, &sourcePath, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.SourcePath = sourcePath.String
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSectors(ctx context.Context) ([]*Sector, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, source_path, created_at FROM sectors ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sectors []*Sector
	for rows.Next() {
		var s Sector
		var sourcePath sql.NullString
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Name, &sourcePath, &createdAt); err != nil {
			return nil, err
		}
		s.SourcePath = sourcePath.String
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sectors = append(sectors, &s)
	}
	return sectors, rows.Err()
}

func (r *SQLiteRepository) DeleteSector(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sectors WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateTrack(ctx context.Context, sectorID string, t *timeline.Track) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracks (id, sector_id, name, type, idx, camera_id, start_time, end_time, combined_duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, sectorID, t.Name, string(t.Type), t.Index, t.CameraID,
		t.StartTime, t.EndTime, t.CombinedDuration, time.Now().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) UpdateTrackBounds(ctx context.Context, t *timeline.Track) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tracks SET start_time = ?, end_time = ?, combined_duration = ? WHERE id = ?
	`, t.StartTime, t.EndTime, t.CombinedDuration, t.ID)
	return err
}

// ListTracks returns the sector's tracks with their clips loaded, in
// creation order so the engine's first-match policy stays stable across
// restarts.
func (r *SQLiteRepository) ListTracks(ctx context.Context, sectorID string) ([]*timeline.Track, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, idx, camera_id, start_time, end_time, combined_duration
		FROM tracks WHERE sector_id = ? ORDER BY idx
	`, sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []*timeline.Track
	byID := make(map[string]*timeline.Track)
	for rows.Next() {
		var t timeline.Track
		var trackType string
		if err := rows.Scan(&t.ID, &t.Name, &trackType, &t.Index, &t.CameraID,
			&t.StartTime, &t.EndTime, &t.CombinedDuration); err != nil {
			return nil, err
		}
		t.Type = timeline.TrackType(trackType)
		tracks = append(tracks, &t)
		byID[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	clipRows, err := r.db.QueryContext(ctx, `
		SELECT id, track_id, name, path, type, start_time, duration, probe_json
		FROM clips WHERE sector_id = ? ORDER BY created_at, id
	`, sectorID)
	if err != nil {
		return nil, err
	}
	defer clipRows.Close()

	for clipRows.Next() {
		var trackID string
		clip, err := scanClip(clipRows, &trackID)
		if err != nil {
			return nil, err
		}
		if t, ok := byID[trackID]; ok {
			t.Clips = append(t.Clips, clip)
		}
	}
	return tracks, clipRows.Err()
}

func (r *SQLiteRepository) DeleteTracksBySector(ctx context.Context, sectorID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tracks WHERE sector_id = ?", sectorID)
	return err
}

func (r *SQLiteRepository) CreateClip(ctx context.Context, sectorID, trackID string, c *timeline.Clip) error {
	var probeJSON sql.NullString
	if c.Probe != nil {
		data, err := json.Marshal(c.Probe)
		if err != nil {
			return fmt.Errorf("marshal probe data: %w", err)
		}
		probeJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clips (id, sector_id, track_id, name, path, type, start_time, duration, probe_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, sectorID, trackID, c.Name, c.Path, string(c.Type),
		nullFloat(c.StartTime), nullFloat(c.Duration), probeJSON,
		time.Now().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetClip(ctx context.Context, id string) (*timeline.Clip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, track_id, name, path, type, start_time, duration, probe_json
		FROM clips WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var trackID string
	return scanClip(rows, &trackID)
}

func scanClip(rows *sql.Rows, trackID *string) (*timeline.Clip, error) {
	var c timeline.Clip
	var clipType string
	var start, duration sql.NullFloat64
	var probeJSON sql.NullString

	if err := rows.Scan(&c.ID, trackID, &c.Name, &c.Path, &clipType,
		&start, &duration, &probeJSON); err != nil {
		return nil, err
	}

	c.Type = timeline.ClipType(clipType)
	if start.Valid {
		v := start.Float64
		c.StartTime = &v
	}
	if duration.Valid {
		v := duration.Float64
		c.Duration = &v
	}
	if probeJSON.Valid {
		var probe timeline.ProbeData
		if err := json.Unmarshal([]byte(probeJSON.String), &probe); err == nil {
			c.Probe = &probe
		}
	}
	return &c, nil
}

func (r *SQLiteRepository) ListClipPaths(ctx context.Context, sectorID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT path FROM clips WHERE sector_id = ?", sectorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

func (r *SQLiteRepository) DeleteClipsBySector(ctx context.Context, sectorID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM clips WHERE sector_id = ?", sectorID)
	return err
}

func (r *SQLiteRepository) CountClips(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clips").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, sector_id, path, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.SectorID), nullString(j.Path),
		j.Progress, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, sector_id, path, progress, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var sectorID, path, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &sectorID, &path, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.SectorID = sectorID.String
	j.Path = path.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, sector_id, path, progress, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, sector_id, path, progress, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var sectorID, path, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &sectorID, &path, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.SectorID = sectorID.String
		j.Path = path.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
