// Package probe shells out to ffprobe and parses its JSON output into
// the stream metadata the timeline engine consumes.
package probe

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cutline/cutline-agent/internal/timeline"
)

// Prober inspects a media file. Implementations must degrade gracefully:
// a file ffprobe cannot read yields an error here, which callers treat
// as "no resolution data", never as a failed ingest.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

// Result is the parsed ffprobe output.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// DurationSeconds returns the container duration in seconds, or 0 when
// ffprobe did not report one.
func (r *Result) DurationSeconds() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// StartSeconds returns the container start offset in seconds. The second
// return value is false when ffprobe reported none, which callers keep
// distinct from an explicit 0.
func (r *Result) StartSeconds() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Format.StartTime), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StreamData converts the result into the timeline's probe shape.
func (r *Result) StreamData() *timeline.ProbeData {
	data := &timeline.ProbeData{Streams: make([]timeline.StreamInfo, 0, len(r.Streams))}
	for _, s := range r.Streams {
		data.Streams = append(data.Streams, timeline.StreamInfo{
			CodecType: s.CodecType,
			CodecName: s.CodecName,
			Width:     s.Width,
			Height:    s.Height,
		})
	}
	return data
}

// StubProber returns canned results keyed by path, for tests and for
// running without ffmpeg installed.
type StubProber struct {
	Results map[string]*Result
	logger  *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{Results: make(map[string]*Result), logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, path string) (*Result, error) {
	if r, ok := p.Results[path]; ok {
		return r, nil
	}
	if p.logger != nil {
		p.logger.Info("probe stub: no canned result for path", "path", path)
	}
	return &Result{}, nil
}
