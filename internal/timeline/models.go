// Package timeline implements the multicam track layout model: clips
// arriving from ingestion are assigned to per-camera tracks inside a
// sector, keeping clips on one track free of time conflicts.
package timeline

import (
	"crypto/rand"
	"fmt"
)

type ClipType string

const (
	ClipVideo ClipType = "video"
	ClipAudio ClipType = "audio"
	ClipImage ClipType = "image"
)

type TrackType string

const (
	TrackVideo TrackType = "video"
	TrackAudio TrackType = "audio"
)

// StreamInfo mirrors one ffprobe stream descriptor. Width and height are
// only meaningful for video streams.
type StreamInfo struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// ProbeData is the probed stream metadata attached to a clip by ingestion.
// A clip may carry no probe data at all, or probe data without any video
// stream; both mean its resolution is unknown.
type ProbeData struct {
	Streams []StreamInfo `json:"streams"`
}

// Clip is one piece of media to be placed on a track. StartTime and
// Duration are in seconds; nil means the field was never supplied and is
// treated as 0, which keeps a genuine 0 distinguishable from "missing".
type Clip struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Type      ClipType   `json:"type"`
	StartTime *float64   `json:"start_time,omitempty"`
	Duration  *float64   `json:"duration,omitempty"`
	Probe     *ProbeData `json:"probe,omitempty"`
}

// Start returns the clip's start time, defaulting to 0 when unset.
func (c *Clip) Start() float64 {
	if c.StartTime == nil {
		return 0
	}
	return *c.StartTime
}

// Dur returns the clip's duration, defaulting to 0 when unset.
func (c *Clip) Dur() float64 {
	if c.Duration == nil {
		return 0
	}
	return *c.Duration
}

// End returns the clip's end time (start + duration).
func (c *Clip) End() float64 {
	return c.Start() + c.Dur()
}

// Track is one camera lane. CameraID is fixed at creation; the aggregate
// fields are refreshed every time a clip is added.
type Track struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     TrackType `json:"type"`
	Index    int       `json:"index"`
	CameraID string    `json:"camera_id"`
	Clips    []*Clip   `json:"clips,omitempty"`

	StartTime        float64 `json:"start_time"`
	EndTime          float64 `json:"end_time"`
	CombinedDuration float64 `json:"combined_duration"`
}

// RefreshBounds recomputes the track aggregates from its clip list.
// StartTime/EndTime span the clips; CombinedDuration is the additive sum
// of clip durations, not the span.
func (t *Track) RefreshBounds() {
	if len(t.Clips) == 0 {
		t.StartTime, t.EndTime, t.CombinedDuration = 0, 0, 0
		return
	}
	start := t.Clips[0].Start()
	end := t.Clips[0].End()
	total := 0.0
	for _, c := range t.Clips {
		if c.Start() < start {
			start = c.Start()
		}
		if c.End() > end {
			end = c.End()
		}
		total += c.Dur()
	}
	t.StartTime, t.EndTime, t.CombinedDuration = start, end, total
}

// Sector scopes one assignment pass: a named container owning a track
// list. The engine only reads and appends; it never removes tracks.
type Sector struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Tracks []*Track `json:"tracks,omitempty"`
}

// NewID returns a random identifier for clips and tracks.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
