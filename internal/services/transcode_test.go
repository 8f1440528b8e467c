package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobarin/clipforge/internal/models"
)

// stubRunner simulates ffmpeg: it writes the output file (last arg) and can
// fail selectively for the caption pass, recognized by its subtitles filter.
type stubRunner struct {
	calls          int
	failCaptions   bool
	failEverything bool
}

func (s *stubRunner) run(ctx context.Context, args []string) error {
	s.calls++

	if s.failEverything {
		return errors.New("ffmpeg -ss: exit status 1")
	}

	captionPass := false
	for _, arg := range args {
		if strings.Contains(arg, "subtitles=") {
			captionPass = true
		}
	}
	if captionPass && s.failCaptions {
		return errors.New("ffmpeg -i: exit status 1: Unable to parse option value")
	}

	return os.WriteFile(args[len(args)-1], []byte("rendered"), 0644)
}

func newStubbedEngine(t *testing.T, runner *stubRunner) *TranscodeEngine {
	t.Helper()
	engine, err := NewTranscodeEngine(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create transcode engine: %v", err)
	}
	engine.runFFmpeg = runner.run
	return engine
}

func testSegment() models.Segment {
	return models.Segment{StartTimeSeconds: 10, DurationSeconds: 15}
}

func TestRenderWithoutCaptions(t *testing.T) {
	runner := &stubRunner{}
	engine := newStubbedEngine(t, runner)
	out := filepath.Join(t.TempDir(), "clip_out.mp4")

	applied, err := engine.Render(context.Background(), "source.mp4", out, testSegment(), models.ClipSettings{
		DurationSeconds: 15,
		AspectRatio:     models.AspectLandscape,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if applied {
		t.Error("captions reported applied with captions disabled")
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 pass, got %d", runner.calls)
	}
	if _, err := os.Stat(out); err != nil {
		t.Error("output clip missing")
	}
}

func TestRenderWithCaptions(t *testing.T) {
	runner := &stubRunner{}
	engine := newStubbedEngine(t, runner)
	out := filepath.Join(t.TempDir(), "clip_out.mp4")

	applied, err := engine.Render(context.Background(), "source.mp4", out, testSegment(), models.ClipSettings{
		DurationSeconds: 15,
		AspectRatio:     models.AspectLandscape,
		CaptionsEnabled: true,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !applied {
		t.Error("captions not reported applied")
	}
	if runner.calls != 2 {
		t.Errorf("expected 2 passes, got %d", runner.calls)
	}
	if _, err := os.Stat(out); err != nil {
		t.Error("output clip missing")
	}

	// The intermediate uncaptioned file is discarded
	temp := strings.TrimSuffix(out, ".mp4") + "_temp.mp4"
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("intermediate file survived a successful caption pass")
	}
}

func TestRenderCaptionFailureDeliversUncaptioned(t *testing.T) {
	runner := &stubRunner{failCaptions: true}
	engine := newStubbedEngine(t, runner)
	out := filepath.Join(t.TempDir(), "clip_out.mp4")

	applied, err := engine.Render(context.Background(), "source.mp4", out, testSegment(), models.ClipSettings{
		DurationSeconds: 15,
		AspectRatio:     models.AspectLandscape,
		CaptionsEnabled: true,
	})
	if err != nil {
		t.Fatalf("caption failure must not fail the render: %v", err)
	}
	if applied {
		t.Error("captions reported applied after a failed caption pass")
	}

	// The uncaptioned intermediate is promoted to the final output
	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("output clip missing after caption fallback: %v", readErr)
	}
	if string(data) != "rendered" {
		t.Errorf("unexpected output content: %q", data)
	}
	temp := strings.TrimSuffix(out, ".mp4") + "_temp.mp4"
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Error("intermediate file left behind after fallback")
	}
}

func TestRenderExtractFailureIsFatal(t *testing.T) {
	runner := &stubRunner{failEverything: true}
	engine := newStubbedEngine(t, runner)
	out := filepath.Join(t.TempDir(), "clip_out.mp4")

	_, err := engine.Render(context.Background(), "source.mp4", out, testSegment(), models.ClipSettings{
		DurationSeconds: 15,
	})
	if !errors.Is(err, ErrTranscodeFailure) {
		t.Fatalf("expected ErrTranscodeFailure, got %v", err)
	}
}

func TestDiagnosticTail(t *testing.T) {
	long := "a\nb\nc\nd\ne\nf\ng"
	if got := diagnosticTail(long); got != "c | d | e | f | g" {
		t.Errorf("unexpected tail: %q", got)
	}
	if got := diagnosticTail("only line"); got != "only line" {
		t.Errorf("unexpected tail: %q", got)
	}
}
