// Package media shells out to ffprobe and ffmpeg for the local video
// operations the pipeline needs: duration probing and still extraction.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

type Processor struct {
	ffmpegPath  string
	ffprobePath string
}

func NewProcessor() *Processor {
	return &Processor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

// Duration returns the container duration of the video in seconds. A file
// without a reported duration yields 0.
func (p *Processor) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	return parseDuration(stdout.Bytes())
}

// ExtractStill renders the frame at the given offset as a png.
func (p *Processor) ExtractStill(ctx context.Context, path string, atSeconds float64) ([]byte, error) {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed for %s at %.3fs: %w: %s", path, atSeconds, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s at %.3fs", path, atSeconds)
	}
	return stdout.Bytes(), nil
}

func parseDuration(probeOutput []byte) (float64, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(probeOutput, &probe); err != nil {
		return 0, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, nil
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return duration, nil
}
