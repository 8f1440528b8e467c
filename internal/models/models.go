package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageTier identifies one of the two storage backends a clip can live on.
type StorageTier string

const (
	TierLocal  StorageTier = "local"
	TierRemote StorageTier = "remote"
)

// StorageProvider identifies the backend serving the remote tier.
type StorageProvider string

const (
	ProviderLocal StorageProvider = "local"
	ProviderS3    StorageProvider = "aws-s3"
)

// AspectRatio is a named preset or a numeric ratio. Recognized presets:
// "16:9", "9:16", "1:1". Anything else is parsed as "<w>:<h>" or a bare
// width/height float ("1.78") and resolved against a fixed 1920px width.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
)

// Dimensions resolves the aspect ratio to concrete pixel dimensions.
// Unrecognized or malformed values fall back to 16:9 like the preset table.
func (a AspectRatio) Dimensions() (width, height int) {
	switch a {
	case AspectLandscape, "":
		return 1920, 1080
	case AspectPortrait:
		return 1080, 1920
	case AspectSquare:
		return 1080, 1080
	}

	raw := strings.TrimSpace(string(a))
	if strings.Contains(raw, ":") {
		var w, h float64
		if _, err := fmt.Sscanf(raw, "%f:%f", &w, &h); err == nil && w > 0 && h > 0 {
			return evenFrame(h / w)
		}
	} else if ratio, err := strconv.ParseFloat(raw, 64); err == nil && ratio > 0 {
		return evenFrame(1 / ratio)
	}

	return 1920, 1080
}

// evenFrame resolves a height/width factor against the fixed 1920px width.
func evenFrame(heightPerWidth float64) (width, height int) {
	width = 1920
	height = int(float64(width)*heightPerWidth + 0.5)
	// Even dimensions keep libx264 happy
	if height%2 != 0 {
		height++
	}
	return width, height
}

// Ratio returns width/height as a float for ffmpeg's aspect option.
func (a AspectRatio) Ratio() float64 {
	w, h := a.Dimensions()
	return float64(w) / float64(h)
}

// VideoAsset is the probed identity of a source video. Immutable once probed.
type VideoAsset struct {
	SourcePath      string  `json:"source_path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	FrameRate       float64 `json:"frame_rate"`
	AudioPresent    bool    `json:"audio_present"`
}

// Segment is a (start, duration) window of the source chosen for rendering.
// Confidence is in [0,1]; Reason is a human-readable provenance tag.
type Segment struct {
	StartTimeSeconds float64 `json:"start_time_seconds"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Confidence       float64 `json:"confidence"`
	Reason           string  `json:"reason"`
}

// CaptionStyle controls the caption burn-in pass.
type CaptionStyle struct {
	FontSize  int    `json:"font_size,omitempty"`  // default 24
	FontColor string `json:"font_color,omitempty"` // default "white"
	Position  string `json:"position,omitempty"`   // default "bottom"
}

// WithDefaults fills zero-value fields with the documented defaults.
func (c CaptionStyle) WithDefaults() CaptionStyle {
	if c.FontSize <= 0 {
		c.FontSize = 24
	}
	if c.FontColor == "" {
		c.FontColor = "white"
	}
	if c.Position == "" {
		c.Position = "bottom"
	}
	return c
}

// ClipSettings are the caller-supplied generation settings for one clip slot.
type ClipSettings struct {
	DurationSeconds float64      `json:"duration_seconds"`
	AspectRatio     AspectRatio  `json:"aspect_ratio"`
	CaptionsEnabled bool         `json:"captions_enabled"`
	CaptionStyle    CaptionStyle `json:"caption_style,omitempty"`
}

// Validate rejects settings before any transcoding work starts. The
// clip-vs-video duration check lives in the orchestrator where the probe
// result is available.
func (s ClipSettings) Validate() error {
	if s.DurationSeconds <= 0 {
		return fmt.Errorf("clip duration must be positive, got %.2f", s.DurationSeconds)
	}
	return nil
}

// ClipIdentity is the unique token naming a clip across both tiers.
// Minted fresh on every generation or edit, never reused, and never derived
// from content — two renders of identical content get distinct identities.
type ClipIdentity string

// NewClipIdentity mints a fresh identity token.
func NewClipIdentity() ClipIdentity {
	return ClipIdentity(uuid.New().String())
}

func (c ClipIdentity) String() string { return string(c) }

// StorageLocation describes one tier's copy of a clip. A clip may hold zero,
// one, or two locations at once (local-only, remote-only after cleanup, or
// both during the transient window between upload and local delete).
type StorageLocation struct {
	Tier         StorageTier     `json:"tier"`
	Path         string          `json:"path"` // local file path or remote object key
	Provider     StorageProvider `json:"provider"`
	PublicURL    string          `json:"public_url,omitempty"`
	ETag         string          `json:"etag,omitempty"`
	Size         int64           `json:"size,omitempty"`
	LastModified time.Time       `json:"last_modified,omitempty"`
}

// ClipResult is the per-slot outcome of a batch. Exactly one exists per
// requested slot regardless of success; degraded slots carry Error alongside
// the retained local location.
type ClipResult struct {
	Identity        ClipIdentity      `json:"id"`
	Segment         Segment           `json:"segment"`
	Settings        ClipSettings      `json:"settings"`
	Locations       []StorageLocation `json:"locations"`
	CaptionsApplied bool              `json:"captions_applied"`
	Error           string            `json:"error,omitempty"`
}

// Degraded reports whether the clip rendered but failed to reach the remote
// tier and was retained locally instead.
func (r ClipResult) Degraded() bool {
	return r.Error != ""
}

// Location returns the clip's location on the given tier, if present.
func (r ClipResult) Location(tier StorageTier) (StorageLocation, bool) {
	for _, loc := range r.Locations {
		if loc.Tier == tier {
			return loc, true
		}
	}
	return StorageLocation{}, false
}

// TierDeleteOutcome is one tier's share of a dual-tier delete. Absence of the
// object is informational ("not found"), not a failure.
type TierDeleteOutcome struct {
	Tier      StorageTier `json:"tier"`
	Attempted bool        `json:"attempted"`
	Found     bool        `json:"found"`
	Deleted   bool        `json:"deleted"`
	Error     string      `json:"error,omitempty"`
}

// OK reports whether this tier's delete counts toward overall success: either
// nothing to delete, not applicable, or deleted cleanly.
func (o TierDeleteOutcome) OK() bool {
	if !o.Attempted || !o.Found {
		return o.Error == ""
	}
	return o.Deleted && o.Error == ""
}
