package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobarin/clipforge/internal/clipaddr"
	"github.com/bobarin/clipforge/internal/models"
)

// fakeFetcher is a ClipFetcher with a configurable remote tier.
type fakeFetcher struct {
	enabled bool
	objects map[string]bool
}

func (f *fakeFetcher) RemoteEnabled() bool { return f.enabled }

func (f *fakeFetcher) Exists(ctx context.Context, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeFetcher) Download(ctx context.Context, key, destPath string) error {
	if !f.objects[key] {
		return errors.New("object not found")
	}
	return nil
}

// fakeTransformer is a ClipTransformer that copies input to output, marking
// the pass that produced it. The caption pass can fail on demand.
type fakeTransformer struct {
	tempDir     string
	failCaption bool
}

func (f *fakeTransformer) copyFile(inputPath, outputPath, marker string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, append(data, []byte(marker)...), 0644)
}

func (f *fakeTransformer) TrimTo(ctx context.Context, inputPath, outputPath string, newDuration float64) error {
	return f.copyFile(inputPath, outputPath, " trimmed")
}

func (f *fakeTransformer) Reencode(ctx context.Context, inputPath, outputPath string) error {
	return f.copyFile(inputPath, outputPath, " reencoded")
}

func (f *fakeTransformer) Reframe(ctx context.Context, inputPath, outputPath string, aspect models.AspectRatio) error {
	return f.copyFile(inputPath, outputPath, " reframed")
}

func (f *fakeTransformer) AddCaptions(ctx context.Context, inputPath, outputPath string, durationSeconds float64, opts CaptionOptions) error {
	if f.failCaption {
		return errors.New("caption burn-in failed")
	}
	return f.copyFile(inputPath, outputPath, " captioned")
}

func (f *fakeTransformer) TempFile(filename string) string {
	return filepath.Join(f.tempDir, filename)
}

func newTestEditEngine(t *testing.T, fetcher ClipFetcher) *EditEngine {
	t.Helper()
	transcoder, err := NewTranscodeEngine(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create transcode engine: %v", err)
	}
	return NewEditEngine(transcoder, fetcher, t.TempDir())
}

// newFakeEditEngine wires the fake transformer and seeds a source clip on the
// local tier, returning the engine along with the source identity and path.
func newFakeEditEngine(t *testing.T) (*EditEngine, models.ClipIdentity, string) {
	t.Helper()
	clipsDir := t.TempDir()
	transformer := &fakeTransformer{tempDir: t.TempDir()}
	engine := NewEditEngine(transformer, &fakeFetcher{}, clipsDir)

	sourceID := models.NewClipIdentity()
	sourcePath := clipaddr.LocalPath(clipsDir, sourceID)
	if err := os.WriteFile(sourcePath, []byte("source bytes"), 0644); err != nil {
		t.Fatalf("failed to seed source clip: %v", err)
	}
	return engine, sourceID, sourcePath
}

func TestTrimDurationRejectsNonPositive(t *testing.T) {
	engine := newTestEditEngine(t, &fakeFetcher{})

	_, err := engine.TrimDuration(context.Background(), models.NewClipIdentity(), 0)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	_, err = engine.TrimDuration(context.Background(), models.NewClipIdentity(), -5)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestSetAspectRatioRejectsEmpty(t *testing.T) {
	engine := newTestEditEngine(t, &fakeFetcher{})

	_, err := engine.SetAspectRatio(context.Background(), models.NewClipIdentity(), "")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}
}

func TestEditMissingClipRemoteDisabled(t *testing.T) {
	engine := newTestEditEngine(t, &fakeFetcher{enabled: false})

	_, err := engine.TrimDuration(context.Background(), models.NewClipIdentity(), 10)
	if !errors.Is(err, ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound, got %v", err)
	}
}

func TestTrimDurationMintsFreshIdentity(t *testing.T) {
	engine, sourceID, sourcePath := newFakeEditEngine(t)

	result, err := engine.TrimDuration(context.Background(), sourceID, 10)
	if err != nil {
		t.Fatalf("trim failed: %v", err)
	}

	if result.Identity == sourceID {
		t.Error("edit reused the source identity")
	}
	if result.Identity == "" {
		t.Error("edit minted no identity")
	}
	if result.Segment.DurationSeconds != 10 || result.Settings.DurationSeconds != 10 {
		t.Errorf("trim did not record the new duration: %+v", result)
	}

	local, ok := result.Location(models.TierLocal)
	if !ok {
		t.Fatal("edited clip missing local location")
	}
	if local.Path == sourcePath {
		t.Error("edit wrote over the source path")
	}
	if data, _ := os.ReadFile(local.Path); string(data) != "source bytes trimmed" {
		t.Errorf("unexpected edited clip content: %q", data)
	}
}

func TestEditNeverAltersSource(t *testing.T) {
	engine, sourceID, sourcePath := newFakeEditEngine(t)

	if _, err := engine.SetAspectRatio(context.Background(), sourceID, models.AspectPortrait); err != nil {
		t.Fatalf("aspect edit failed: %v", err)
	}
	if _, err := engine.SetCaptions(context.Background(), sourceID, true, models.CaptionStyle{}); err != nil {
		t.Fatalf("caption edit failed: %v", err)
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatalf("source clip vanished: %v", err)
	}
	if string(data) != "source bytes" {
		t.Errorf("source clip bytes changed: %q", data)
	}
}

func TestSetCaptionsOffReencodes(t *testing.T) {
	engine, sourceID, _ := newFakeEditEngine(t)

	result, err := engine.SetCaptions(context.Background(), sourceID, false, models.CaptionStyle{})
	if err != nil {
		t.Fatalf("captions-off edit failed: %v", err)
	}
	if result.CaptionsApplied {
		t.Error("captions reported applied on a captions-off edit")
	}

	local, _ := result.Location(models.TierLocal)
	if data, _ := os.ReadFile(local.Path); string(data) != "source bytes reencoded" {
		t.Errorf("captions-off edit did not re-encode: %q", data)
	}
}

func TestEditMissingClipRemoteEnabled(t *testing.T) {
	// Remote tier enabled but the clip exists on neither tier
	engine := newTestEditEngine(t, &fakeFetcher{enabled: true, objects: map[string]bool{}})

	_, err := engine.SetCaptions(context.Background(), models.NewClipIdentity(), true, models.CaptionStyle{})
	if !errors.Is(err, ErrClipNotFound) {
		t.Fatalf("expected ErrClipNotFound, got %v", err)
	}
}
