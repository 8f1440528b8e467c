package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bobarin/clipforge/internal/models"
)

// VideoProber probes source videos for duration and stream layout.
// Satisfied by ProbeService; tests substitute a stub.
type VideoProber interface {
	Probe(ctx context.Context, videoPath string) (models.VideoAsset, error)
}

// ProbeService wraps ffprobe.
type ProbeService struct{}

func NewProbeService() *ProbeService {
	return &ProbeService{}
}

// ffprobe JSON output shapes — only the fields we read.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe against the video and returns its immutable asset
// description. The asset is created once on first access and never mutated.
func (s *ProbeService) Probe(ctx context.Context, videoPath string) (models.VideoAsset, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-show_streams",
		"-of", "json",
		videoPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return models.VideoAsset{}, fmt.Errorf("ffprobe failed for %s: %w", videoPath, err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return models.VideoAsset{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return models.VideoAsset{}, fmt.Errorf("failed to parse video duration %q: %w", probed.Format.Duration, err)
	}

	asset := models.VideoAsset{
		SourcePath:      videoPath,
		DurationSeconds: duration,
	}

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			asset.Width = stream.Width
			asset.Height = stream.Height
			asset.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			asset.AudioPresent = true
		}
	}

	return asset, nil
}

// parseFrameRate evaluates ffprobe's rational frame rate ("30000/1001").
func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
