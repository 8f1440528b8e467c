package services

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/bobarin/clipforge/internal/models"
)

// ErrInsufficientDuration means the requested clip length exceeds the source
// video's length. Fatal, reported before any work starts.
var ErrInsufficientDuration = errors.New("video is shorter than requested clip duration")

// SegmentPlanner produces candidate segments for a batch. It is a pure
// function of video duration and clip count apart from the jitter source.
type SegmentPlanner struct {
	rng *rand.Rand // nil disables jitter (deterministic test mode)
}

// NewSegmentPlanner creates a planner with the given jitter source.
// Pass nil to disable jitter entirely.
func NewSegmentPlanner(rng *rand.Rand) *SegmentPlanner {
	return &SegmentPlanner{rng: rng}
}

// Plan returns exactly numClips segments for the given video.
//
// Scorer candidates, when at least numClips of them are supplied, take
// precedence verbatim — the planner never blends scored and arithmetic
// segments. Otherwise:
//
//   - numClips == 1: the segment starts at min(0.30 × videoDuration, maxStart),
//     biasing toward the first third to skip intros and outros.
//   - numClips > 1: the video is partitioned into equal base segments and each
//     start is offset by jitter drawn from ±10% of the segment length, clamped
//     to [0, maxStart].
//
// Jittered segments are not guaranteed non-overlapping; callers must not
// assume disjointness.
func (p *SegmentPlanner) Plan(videoDuration, clipDuration float64, numClips int, candidates []models.Segment) ([]models.Segment, error) {
	if clipDuration > videoDuration {
		return nil, fmt.Errorf("%w: clip %.2fs, video %.2fs", ErrInsufficientDuration, clipDuration, videoDuration)
	}
	if numClips < 1 {
		return nil, fmt.Errorf("at least one clip required, got %d", numClips)
	}

	if len(candidates) >= numClips {
		return candidates[:numClips], nil
	}

	maxStart := videoDuration - clipDuration
	if maxStart < 0 {
		maxStart = 0
	}

	if numClips == 1 {
		start := 0.30 * videoDuration
		if start > maxStart {
			start = maxStart
		}
		return []models.Segment{{
			StartTimeSeconds: start,
			DurationSeconds:  clipDuration,
			Confidence:       0.5,
			Reason:           "Standard segment",
		}}, nil
	}

	segmentLength := videoDuration / float64(numClips)
	segments := make([]models.Segment, 0, numClips)

	for i := 0; i < numClips; i++ {
		start := float64(i) * segmentLength
		if p.rng != nil {
			// Uniform jitter in [-0.1, +0.1] × segmentLength
			start += (p.rng.Float64() - 0.5) * (segmentLength * 0.2)
		}
		if start < 0 {
			start = 0
		}
		if start > maxStart {
			start = maxStart
		}

		segments = append(segments, models.Segment{
			StartTimeSeconds: start,
			DurationSeconds:  clipDuration,
			Confidence:       0.5,
			Reason:           "Standard segment",
		})
	}

	return segments, nil
}
