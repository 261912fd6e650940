package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const maxStderrBytes = 4 * 1024 // tail of stderr kept for diagnostics

// ExecProber runs the ffprobe binary.
type ExecProber struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecProber creates a prober for the given binary path. An empty
// binary means "ffprobe" resolved from PATH.
func NewExecProber(binary string, timeout time.Duration, logger *slog.Logger) *ExecProber {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecProber{binary: binary, timeout: timeout, logger: logger}
}

// Probe executes ffprobe against the path and decodes the JSON response.
func (p *ExecProber) Probe(ctx context.Context, path string) (*Result, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("probe: empty path")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: maxStderrBytes}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		tail := strings.TrimSpace(stderr.String())
		if p.logger != nil {
			p.logger.Warn("ffprobe failed",
				"path", path,
				"duration_ms", elapsed.Milliseconds(),
				"stderr_tail", tail,
			)
		}
		return nil, fmt.Errorf("ffprobe %s: %w: %s", path, err, tail)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("ffprobe parse: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("ffprobe completed",
			"path", path,
			"streams", len(result.Streams),
			"duration_ms", elapsed.Milliseconds(),
		)
	}
	return &result, nil
}

// Detect resolves the ffprobe binary, returning its full path. Used at
// startup to decide whether real probing is available.
func Detect(binary string) (string, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("ffprobe binary %q not found: %w", binary, err)
	}
	return path, nil
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.buf.Write(p)
	if lw.buf.Len() > lw.limit {
		b := lw.buf.Bytes()
		lw.buf.Reset()
		lw.buf.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
