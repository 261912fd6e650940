package library

import (
	"path/filepath"
	"strings"
	"time"
)

// Sector is the persistent scoping container for one multicam layout.
// SourcePath, when set, links the sector to a media folder the watcher
// keeps an eye on.
type Sector struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	JobTypeIngest = "ingest"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	SectorID  string    `json:"sector_id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".mts": true,
	".m4v": true,
}

// IsVideoFile reports whether the filename carries a recognised video
// container extension.
func IsVideoFile(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}
