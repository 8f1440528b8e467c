package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bobarin/clipforge/internal/models"
)

// ErrTranscodeFailure means the primary crop/scale pass exited non-zero.
// Fatal to the containing batch; carries the engine's diagnostic text.
var ErrTranscodeFailure = errors.New("transcode failed")

// Delivery codec profile — constant quality, fast preset, moov atom up front
// so clips start streaming before the full download.
var deliveryProfile = []string{
	"-c:v", "libx264",
	"-c:a", "aac",
	"-preset", "fast",
	"-crf", "23",
	"-movflags", "+faststart",
}

// CaptionOptions parameterize the caption burn-in pass.
type CaptionOptions struct {
	Style models.CaptionStyle
	// SubtitlePath is an optional subtitle track. When empty, a placeholder
	// SRT covering the whole clip is generated and burned in.
	SubtitlePath string
}

// TranscodeEngine wraps ffmpeg to produce one output clip from one input
// segment, with reframing and optional caption burn-in.
type TranscodeEngine struct {
	tempDir string
	// runFFmpeg executes one ffmpeg invocation. Tests stub it; everything
	// else goes through the real binary.
	runFFmpeg func(ctx context.Context, args []string) error
}

func NewTranscodeEngine(tempDir string) (*TranscodeEngine, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	e := &TranscodeEngine{tempDir: tempDir}
	e.runFFmpeg = e.execFFmpeg
	return e, nil
}

// Render extracts [segment.start, segment.start+segment.duration) from the
// source, scales and letterboxes to the target aspect, and encodes to the
// delivery profile at outputPath.
//
// When captions are enabled a second pass overlays caption text onto the
// already-cropped clip; the intermediate uncaptioned file is discarded. A
// caption pass failure is non-fatal: the uncaptioned clip is delivered and
// the returned flag is false.
func (e *TranscodeEngine) Render(ctx context.Context, sourcePath, outputPath string, segment models.Segment, settings models.ClipSettings) (captionsApplied bool, err error) {
	primaryOut := outputPath
	if settings.CaptionsEnabled {
		primaryOut = strings.TrimSuffix(outputPath, ".mp4") + "_temp.mp4"
	}

	if err := e.extractSegment(ctx, sourcePath, primaryOut, segment, settings.AspectRatio); err != nil {
		return false, err
	}

	if !settings.CaptionsEnabled {
		return false, nil
	}

	// Caption pass — non-fatal on failure, the uncaptioned clip is delivered
	opts := CaptionOptions{Style: settings.CaptionStyle}
	if err := e.AddCaptions(ctx, primaryOut, outputPath, segment.DurationSeconds, opts); err != nil {
		log.Printf("[Transcode] Caption pass failed, delivering uncaptioned clip: %v", err)
		if renameErr := os.Rename(primaryOut, outputPath); renameErr != nil {
			return false, fmt.Errorf("failed to recover uncaptioned clip: %w", renameErr)
		}
		return false, nil
	}

	os.Remove(primaryOut)
	return true, nil
}

// extractSegment runs the primary crop/scale pass.
func (e *TranscodeEngine) extractSegment(ctx context.Context, sourcePath, outputPath string, segment models.Segment, aspect models.AspectRatio) error {
	width, height := aspect.Dimensions()

	// Scale down to fit, then pad to the exact frame with black bars
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		width, height, width, height,
	)

	args := []string{
		"-ss", formatSeconds(segment.StartTimeSeconds),
		"-t", formatSeconds(segment.DurationSeconds),
		"-i", sourcePath,
		"-vf", vf,
	}
	args = append(args, deliveryProfile...)
	args = append(args, "-y", outputPath)

	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}
	return nil
}

// AddCaptions overlays caption text onto an already-rendered clip. When no
// subtitle track is supplied, a placeholder SRT covering the whole clip is
// generated, burned in, and removed.
func (e *TranscodeEngine) AddCaptions(ctx context.Context, inputPath, outputPath string, durationSeconds float64, opts CaptionOptions) error {
	style := opts.Style.WithDefaults()

	if durationSeconds <= 0 {
		probed, err := e.ClipDuration(ctx, inputPath)
		if err != nil {
			return err
		}
		durationSeconds = probed
	}

	subtitlePath := opts.SubtitlePath
	if subtitlePath == "" {
		generated := e.TempFile(strings.TrimSuffix(filepath.Base(outputPath), ".mp4") + ".srt")
		if err := GenerateSimpleSubtitles(generated, durationSeconds, ""); err != nil {
			return err
		}
		defer os.Remove(generated)
		subtitlePath = generated
	} else if _, err := os.Stat(subtitlePath); err != nil {
		return fmt.Errorf("subtitle track not readable: %w", err)
	}

	vf := fmt.Sprintf(
		"subtitles='%s':force_style='Fontsize=%d,PrimaryColour=%s,Alignment=%d'",
		escapeFilterPath(subtitlePath),
		style.FontSize,
		assColor(style.FontColor),
		assAlignment(style.Position),
	)

	args := []string{"-i", inputPath, "-vf", vf}
	args = append(args, deliveryProfile...)
	args = append(args, "-y", outputPath)

	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("caption burn-in failed: %w", err)
	}
	return nil
}

// TrimTo re-encodes the first newDuration seconds of a clip.
func (e *TranscodeEngine) TrimTo(ctx context.Context, inputPath, outputPath string, newDuration float64) error {
	args := []string{
		"-i", inputPath,
		"-t", formatSeconds(newDuration),
	}
	args = append(args, deliveryProfile...)
	args = append(args, "-y", outputPath)

	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}
	return nil
}

// Reencode re-encodes a clip without any filter stage. Used for captions-off
// edits: a full re-encode rather than a stream copy keeps codec parameters
// uniform across all clips regardless of edit history.
func (e *TranscodeEngine) Reencode(ctx context.Context, inputPath, outputPath string) error {
	args := []string{"-i", inputPath}
	args = append(args, deliveryProfile...)
	args = append(args, "-y", outputPath)

	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}
	return nil
}

// Reframe scales and letterboxes an existing clip to a new aspect ratio.
func (e *TranscodeEngine) Reframe(ctx context.Context, inputPath, outputPath string, aspect models.AspectRatio) error {
	width, height := aspect.Dimensions()

	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		width, height, width, height,
	)

	args := []string{"-i", inputPath, "-vf", vf}
	args = append(args, deliveryProfile...)
	args = append(args, "-y", outputPath)

	if err := e.run(ctx, args); err != nil {
		return fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}
	return nil
}

// ClipDuration returns a rendered clip's duration in seconds via ffprobe.
func (e *TranscodeEngine) ClipDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration failed: %w", err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("failed to parse clip duration: %w", err)
	}

	return duration, nil
}

// TempFile returns a path inside the engine's temp directory.
func (e *TranscodeEngine) TempFile(filename string) string {
	return filepath.Join(e.tempDir, filename)
}

// Cleanup removes temporary files.
func (e *TranscodeEngine) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

func (e *TranscodeEngine) run(ctx context.Context, args []string) error {
	return e.runFFmpeg(ctx, args)
}

// execFFmpeg executes ffmpeg, keeping the diagnostic tail for error reporting.
func (e *TranscodeEngine) execFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %v: %s", args[0], err, diagnosticTail(stderr.String()))
	}
	return nil
}

// diagnosticTail keeps the last few lines of ffmpeg stderr — the part that
// actually names the failure.
func diagnosticTail(stderr string) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}

// escapeFilterPath escapes special characters in file paths for FFmpeg filter
// syntax. Filter strings treat colons, backslashes, and single quotes specially.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}

func formatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}

// assColor maps a named color to the ASS &HBBGGRR form used by force_style.
func assColor(name string) string {
	switch strings.ToLower(name) {
	case "black":
		return "&H000000&"
	case "yellow":
		return "&H00FFFF&"
	default:
		return "&Hffffff&"
	}
}

// assAlignment maps a caption position to an ASS numpad alignment value.
func assAlignment(position string) int {
	switch strings.ToLower(position) {
	case "top":
		return 8
	case "middle":
		return 5
	default:
		return 2 // bottom-center
	}
}
