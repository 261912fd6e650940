// Package export renders a track's clip layout as a CMX-style EDL that
// desktop editors can import.
package export

type ExportRequest struct {
	SectorID    string  `json:"sector_id"`
	TrackID     string  `json:"track_id"`
	ProjectName string  `json:"project_name"`
	Format      string  `json:"format"`
	FrameRate   float64 `json:"frame_rate"`
	OutputDir   string  `json:"output_dir"`
}

// ResolvedClip is one EDL event: a media file placed at a position on
// the track's timeline.
type ResolvedClip struct {
	ClipName      string
	MediaPath     string
	RecordStartMs int
	RecordEndMs   int
}

type ExportResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}
