package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bobarin/clipforge/internal/clipaddr"
	"github.com/bobarin/clipforge/internal/models"
)

var (
	// ErrInvalidDuration rejects trim edits with a non-positive duration.
	ErrInvalidDuration = errors.New("valid duration required")

	// ErrMissingParameter rejects edits missing a required parameter.
	ErrMissingParameter = errors.New("required parameter missing")

	// ErrClipNotFound means the clip exists on neither tier.
	ErrClipNotFound = errors.New("clip not found")
)

// ClipFetcher is the slice of the storage tier the edit engine needs to read
// a clip's bytes when no local copy exists.
type ClipFetcher interface {
	RemoteEnabled() bool
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key, destPath string) error
}

// ClipTransformer is the slice of the transcode engine the edit engine
// drives. Satisfied by *TranscodeEngine.
type ClipTransformer interface {
	TrimTo(ctx context.Context, inputPath, outputPath string, newDuration float64) error
	Reencode(ctx context.Context, inputPath, outputPath string) error
	Reframe(ctx context.Context, inputPath, outputPath string, aspect models.AspectRatio) error
	AddCaptions(ctx context.Context, inputPath, outputPath string, durationSeconds float64, opts CaptionOptions) error
	TempFile(filename string) string
}

// EditEngine applies a single transformation to an existing clip. Every edit
// mints a new identity and writes a new file — the source clip's locations
// and bytes are never touched (copy-on-write versioning).
type EditEngine struct {
	transcoder ClipTransformer
	fetcher    ClipFetcher
	clipsDir   string
}

func NewEditEngine(transcoder ClipTransformer, fetcher ClipFetcher, clipsDir string) *EditEngine {
	return &EditEngine{
		transcoder: transcoder,
		fetcher:    fetcher,
		clipsDir:   clipsDir,
	}
}

// TrimDuration re-encodes the first newDuration seconds of the clip into a
// fresh identity.
func (e *EditEngine) TrimDuration(ctx context.Context, clipID models.ClipIdentity, newDuration float64) (models.ClipResult, error) {
	if newDuration <= 0 {
		return models.ClipResult{}, fmt.Errorf("%w: got %.2f", ErrInvalidDuration, newDuration)
	}

	return e.edit(ctx, clipID, func(inputPath, outputPath string) error {
		return e.transcoder.TrimTo(ctx, inputPath, outputPath, newDuration)
	}, func(result *models.ClipResult) {
		result.Segment.DurationSeconds = newDuration
		result.Settings.DurationSeconds = newDuration
	})
}

// SetCaptions re-renders the clip with captions burned in or removed.
// Captions-off is a full re-encode, not a stream copy, so codec parameters
// stay uniform across all clips regardless of edit history.
func (e *EditEngine) SetCaptions(ctx context.Context, clipID models.ClipIdentity, on bool, style models.CaptionStyle) (models.ClipResult, error) {
	return e.edit(ctx, clipID, func(inputPath, outputPath string) error {
		if !on {
			return e.transcoder.Reencode(ctx, inputPath, outputPath)
		}
		return e.transcoder.AddCaptions(ctx, inputPath, outputPath, 0, CaptionOptions{Style: style})
	}, func(result *models.ClipResult) {
		result.Settings.CaptionsEnabled = on
		result.Settings.CaptionStyle = style
		result.CaptionsApplied = on
	})
}

// SetAspectRatio reframes the clip to a new aspect ratio under a fresh
// identity.
func (e *EditEngine) SetAspectRatio(ctx context.Context, clipID models.ClipIdentity, ratio models.AspectRatio) (models.ClipResult, error) {
	if ratio == "" {
		return models.ClipResult{}, fmt.Errorf("%w: aspect ratio", ErrMissingParameter)
	}

	return e.edit(ctx, clipID, func(inputPath, outputPath string) error {
		return e.transcoder.Reframe(ctx, inputPath, outputPath, ratio)
	}, func(result *models.ClipResult) {
		result.Settings.AspectRatio = ratio
	})
}

// edit resolves the source clip's best-available location, runs the
// transformation into a freshly-minted identity, and describes the result.
func (e *EditEngine) edit(ctx context.Context, clipID models.ClipIdentity, transform func(inputPath, outputPath string) error, annotate func(*models.ClipResult)) (models.ClipResult, error) {
	inputPath, cleanup, err := e.resolveSource(ctx, clipID)
	if err != nil {
		return models.ClipResult{}, err
	}
	defer cleanup()

	newID := models.NewClipIdentity()
	outputPath := clipaddr.LocalPath(e.clipsDir, newID)

	if err := transform(inputPath, outputPath); err != nil {
		return models.ClipResult{}, err
	}

	result := models.ClipResult{
		Identity: newID,
		Segment: models.Segment{
			Reason: fmt.Sprintf("Edited from clip %s", clipID),
		},
		Locations: []models.StorageLocation{
			localLocation(outputPath),
		},
	}
	annotate(&result)

	return result, nil
}

// resolveSource prefers the local copy; when absent it fetches through from
// the remote tier into a temp file that the returned cleanup removes.
func (e *EditEngine) resolveSource(ctx context.Context, clipID models.ClipIdentity) (string, func(), error) {
	noop := func() {}

	localPath := clipaddr.LocalPath(e.clipsDir, clipID)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, noop, nil
	}

	if !e.fetcher.RemoteEnabled() {
		return "", noop, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}

	key := clipaddr.RemoteKey(clipID)
	exists, err := e.fetcher.Exists(ctx, key)
	if err != nil {
		return "", noop, fmt.Errorf("failed to check remote tier for %s: %w", clipID, err)
	}
	if !exists {
		return "", noop, fmt.Errorf("%w: %s", ErrClipNotFound, clipID)
	}

	tempPath := e.transcoder.TempFile("fetch_" + clipaddr.Filename(clipID))
	if err := e.fetcher.Download(ctx, key, tempPath); err != nil {
		return "", noop, fmt.Errorf("failed to fetch clip %s from remote tier: %w", clipID, err)
	}

	log.Printf("[Edit] Fetched clip %s from remote tier for editing", clipID)
	return tempPath, func() { os.Remove(tempPath) }, nil
}

func localLocation(path string) models.StorageLocation {
	loc := models.StorageLocation{
		Tier:     models.TierLocal,
		Path:     path,
		Provider: models.ProviderLocal,
	}
	if info, err := os.Stat(path); err == nil {
		loc.Size = info.Size()
		loc.LastModified = info.ModTime()
	}
	return loc
}
