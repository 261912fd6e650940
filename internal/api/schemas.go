package api

import (
	"time"

	"github.com/cutline/cutline-agent/internal/library"
	"github.com/cutline/cutline-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string       `json:"state"`
	LastError    string       `json:"last_error,omitempty"`
	SectorsCount int          `json:"sectors_count"`
	ClipsCount   int          `json:"clips_count"`
	JobsRunning  int          `json:"jobs_running"`
	ActiveJob    *JobResponse `json:"active_job,omitempty"`
}

type AddSectorRequest struct {
	Name       string `json:"name,omitempty"`
	SourcePath string `json:"source_path"`
}

type AddSectorResponse struct {
	SectorID string `json:"sector_id"`
}

type SectorResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourcePath string `json:"source_path,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type SectorsResponse struct {
	Sectors []SectorResponse `json:"sectors"`
}

type IngestRequest struct {
	Path string `json:"path,omitempty"`
}

type IngestResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SectorID  string `json:"sector_id,omitempty"`
	Path      string `json:"path,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ClipResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Type      string  `json:"type"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

type TrackResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	Index            int            `json:"index"`
	CameraID         string         `json:"camera_id,omitempty"`
	StartTime        float64        `json:"start_time"`
	EndTime          float64        `json:"end_time"`
	CombinedDuration float64        `json:"combined_duration"`
	Clips            []ClipResponse `json:"clips"`
}

type TracksResponse struct {
	Tracks []TrackResponse `json:"tracks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SectorToResponse(s *library.Sector) SectorResponse {
	return SectorResponse{
		ID:         s.ID,
		Name:       s.Name,
		SourcePath: s.SourcePath,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *library.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		SectorID:  j.SectorID,
		Path:      j.Path,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func ClipToResponse(c *timeline.Clip) ClipResponse {
	return ClipResponse{
		ID:        c.ID,
		Name:      c.Name,
		Path:      c.Path,
		Type:      string(c.Type),
		StartTime: c.Start(),
		Duration:  c.Dur(),
	}
}

func TrackToResponse(t *timeline.Track) TrackResponse {
	clips := make([]ClipResponse, len(t.Clips))
	for i, c := range t.Clips {
		clips[i] = ClipToResponse(c)
	}
	return TrackResponse{
		ID:               t.ID,
		Name:             t.Name,
		Type:             string(t.Type),
		Index:            t.Index,
		CameraID:         t.CameraID,
		StartTime:        t.StartTime,
		EndTime:          t.EndTime,
		CombinedDuration: t.CombinedDuration,
		Clips:            clips,
	}
}
