// Package orchestrator coordinates one clip generation batch end to end:
// plan segments, render them concurrently, push each rendered clip through
// the storage tiers, and assemble the batch result.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bobarin/clipforge/internal/clipaddr"
	"github.com/bobarin/clipforge/internal/models"
	"github.com/bobarin/clipforge/internal/services"
)

const clipContentType = "video/mp4"

// Renderer produces one clip file from one source segment.
type Renderer interface {
	Render(ctx context.Context, sourcePath, outputPath string, segment models.Segment, settings models.ClipSettings) (captionsApplied bool, err error)
}

// Uploader is the slice of the storage tier the orchestrator drives after a
// successful render.
type Uploader interface {
	RemoteEnabled() bool
	UploadAndCleanup(ctx context.Context, localPath, logicalKey, contentType string) (models.StorageLocation, error)
}

// BatchOrchestrator runs generation batches with bounded concurrency.
//
// The failure boundary is deliberately asymmetric: a render failure aborts
// the whole batch and yields zero results, because a partial batch with holes
// where the engine itself broke is not a deliverable. An upload failure is
// isolated to its slot: the clip is real and playable, it just never left the
// local tier.
type BatchOrchestrator struct {
	planner       *services.SegmentPlanner
	scorer        services.SegmentScorer // nil disables scored candidates
	renderer      Renderer
	uploader      Uploader
	clipsDir      string
	maxConcurrent int
}

func New(planner *services.SegmentPlanner, scorer services.SegmentScorer, renderer Renderer, uploader Uploader, clipsDir string, maxConcurrent int) *BatchOrchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BatchOrchestrator{
		planner:       planner,
		scorer:        scorer,
		renderer:      renderer,
		uploader:      uploader,
		clipsDir:      clipsDir,
		maxConcurrent: maxConcurrent,
	}
}

// GenerateBatch plans one segment per requested slot and renders them
// concurrently, each slot with its own settings. Results come back sorted by
// segment start time, so a batch reads in source order regardless of
// completion order.
func (o *BatchOrchestrator) GenerateBatch(ctx context.Context, video models.VideoAsset, slots []models.ClipSettings, useScorer bool) ([]models.ClipResult, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("at least one clip slot required")
	}

	var maxDuration float64
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, err
		}
		if slot.DurationSeconds > maxDuration {
			maxDuration = slot.DurationSeconds
		}
	}

	var candidates []models.Segment
	if useScorer && o.scorer != nil {
		scored, err := o.scorer.FindInterestingSegments(ctx, video, len(slots), maxDuration)
		if err != nil {
			log.Printf("[Orchestrator] Segment scoring failed, planning without candidates: %v", err)
		} else {
			candidates = scored
		}
	}

	// Planned before any rendering starts, so an undersized source fails
	// fast without touching ffmpeg. Planning against the longest slot keeps
	// every start valid for its slot's shorter or equal window.
	segments, err := o.planner.Plan(video.DurationSeconds, maxDuration, len(slots), candidates)
	if err != nil {
		return nil, err
	}
	for i := range segments {
		segments[i].DurationSeconds = slots[i].DurationSeconds
	}

	log.Printf("[Orchestrator] Generating %d clip(s) from %s", len(segments), video.SourcePath)

	results := make([]models.ClipResult, len(segments))
	sem := make(chan struct{}, o.maxConcurrent)

	g, gctx := errgroup.WithContext(ctx)
	for i, segment := range segments {
		i, segment := i, segment
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			result, err := o.generateOne(gctx, video, segment, slots[i])
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch aborted: %w", err)
	}

	sort.Slice(results, func(a, b int) bool {
		return results[a].Segment.StartTimeSeconds < results[b].Segment.StartTimeSeconds
	})
	return results, nil
}

// generateOne renders a single slot and tiers its output. Render errors
// propagate (fatal to the batch); upload errors degrade the slot to
// local-only.
func (o *BatchOrchestrator) generateOne(ctx context.Context, video models.VideoAsset, segment models.Segment, settings models.ClipSettings) (models.ClipResult, error) {
	identity := models.NewClipIdentity()
	localPath := clipaddr.LocalPath(o.clipsDir, identity)

	captionsApplied, err := o.renderer.Render(ctx, video.SourcePath, localPath, segment, settings)
	if err != nil {
		return models.ClipResult{}, fmt.Errorf("clip at %.1fs: %w", segment.StartTimeSeconds, err)
	}

	result := models.ClipResult{
		Identity:        identity,
		Segment:         segment,
		Settings:        settings,
		CaptionsApplied: captionsApplied,
	}

	location, err := o.uploader.UploadAndCleanup(ctx, localPath, clipaddr.RemoteKey(identity), clipContentType)
	if err != nil {
		log.Printf("[Orchestrator] Upload failed for clip %s, keeping local copy: %v", identity, err)
		result.Error = err.Error()
		result.Locations = []models.StorageLocation{{
			Tier:     models.TierLocal,
			Path:     localPath,
			Provider: models.ProviderLocal,
		}}
		return result, nil
	}

	result.Locations = []models.StorageLocation{location}
	log.Printf("[Orchestrator] Clip %s ready on %s tier", identity, location.Tier)
	return result, nil
}
