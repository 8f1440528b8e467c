package services

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/bobarin/clipforge/internal/models"
)

func TestPlanRejectsShortVideo(t *testing.T) {
	planner := NewSegmentPlanner(nil)

	_, err := planner.Plan(10, 15, 1, nil)
	if !errors.Is(err, ErrInsufficientDuration) {
		t.Fatalf("expected ErrInsufficientDuration, got %v", err)
	}
}

func TestPlanSingleClipBiasesEarly(t *testing.T) {
	planner := NewSegmentPlanner(nil)

	// 100s video, 15s clip: start = 0.30 * 100 = 30
	segments, err := planner.Plan(100, 15, 1, nil)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].StartTimeSeconds != 30 {
		t.Errorf("expected start 30, got %v", segments[0].StartTimeSeconds)
	}
	if segments[0].DurationSeconds != 15 {
		t.Errorf("expected duration 15, got %v", segments[0].DurationSeconds)
	}
}

func TestPlanSingleClipClampsToMaxStart(t *testing.T) {
	planner := NewSegmentPlanner(nil)

	// 20s video, 15s clip: 0.30 * 20 = 6 > maxStart 5, so clamp to 5
	segments, err := planner.Plan(20, 15, 1, nil)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if segments[0].StartTimeSeconds != 5 {
		t.Errorf("expected clamped start 5, got %v", segments[0].StartTimeSeconds)
	}
}

func TestPlanMultiClipEvenSpacing(t *testing.T) {
	// nil rng disables jitter, so starts are exactly i * (duration / numClips)
	planner := NewSegmentPlanner(nil)

	segments, err := planner.Plan(120, 15, 3, nil)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	expected := []float64{0, 40, 80}
	for i, seg := range segments {
		if seg.StartTimeSeconds != expected[i] {
			t.Errorf("segment %d: expected start %v, got %v", i, expected[i], seg.StartTimeSeconds)
		}
		if seg.DurationSeconds != 15 {
			t.Errorf("segment %d: expected duration 15, got %v", i, seg.DurationSeconds)
		}
	}
}

func TestPlanJitterStaysInBounds(t *testing.T) {
	planner := NewSegmentPlanner(rand.New(rand.NewSource(42)))

	for trial := 0; trial < 100; trial++ {
		segments, err := planner.Plan(60, 10, 4, nil)
		if err != nil {
			t.Fatalf("plan failed: %v", err)
		}

		maxStart := 60.0 - 10.0
		for i, seg := range segments {
			if seg.StartTimeSeconds < 0 || seg.StartTimeSeconds > maxStart {
				t.Fatalf("trial %d segment %d: start %v outside [0, %v]", trial, i, seg.StartTimeSeconds, maxStart)
			}
			if seg.StartTimeSeconds+seg.DurationSeconds > 60 {
				t.Fatalf("trial %d segment %d: window exceeds video end", trial, i)
			}
		}
	}
}

func TestPlanUsesCandidatesVerbatim(t *testing.T) {
	planner := NewSegmentPlanner(nil)

	candidates := []models.Segment{
		{StartTimeSeconds: 5, DurationSeconds: 10, Confidence: 0.9, Reason: "Audio peak identified"},
		{StartTimeSeconds: 25, DurationSeconds: 10, Confidence: 0.8, Reason: "Scene change detected"},
		{StartTimeSeconds: 45, DurationSeconds: 10, Confidence: 0.7, Reason: "High motion detected"},
	}

	segments, err := planner.Plan(60, 10, 2, candidates)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0] != candidates[0] || segments[1] != candidates[1] {
		t.Error("candidates were not used verbatim")
	}
}

func TestPlanIgnoresUndersizedCandidateSet(t *testing.T) {
	planner := NewSegmentPlanner(nil)

	candidates := []models.Segment{
		{StartTimeSeconds: 5, DurationSeconds: 10, Confidence: 0.9},
	}

	// Fewer candidates than slots: fall back to arithmetic segments, never blend
	segments, err := planner.Plan(60, 10, 3, candidates)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for _, seg := range segments {
		if seg.Reason != "Standard segment" {
			t.Errorf("expected arithmetic segment, got reason %q", seg.Reason)
		}
	}
}
