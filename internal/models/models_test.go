package models

import "testing"

func TestAspectRatioDimensions(t *testing.T) {
	cases := []struct {
		aspect AspectRatio
		width  int
		height int
	}{
		{AspectLandscape, 1920, 1080},
		{AspectPortrait, 1080, 1920},
		{AspectSquare, 1080, 1080},
		{"", 1920, 1080},
		{"4:3", 1920, 1440},
		{"21:9", 1920, 824},
		{"1.78", 1920, 1080},
		{"2", 1920, 960},
		{"0.5625", 1920, 3414},
		{"garbage", 1920, 1080},
		{"0:5", 1920, 1080},
		{"-1.5", 1920, 1080},
	}

	for _, tc := range cases {
		w, h := tc.aspect.Dimensions()
		if w != tc.width || h != tc.height {
			t.Errorf("%q: expected %dx%d, got %dx%d", tc.aspect, tc.width, tc.height, w, h)
		}
		if h%2 != 0 {
			t.Errorf("%q: odd height %d", tc.aspect, h)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"15s", 15},
		{"30", 30},
		{"1m", 60},
		{"2h", 7200},
		{"", 15},
		{"abc", 15},
		{"-5s", 15},
	}

	for _, tc := range cases {
		if got := ParseDuration(tc.raw); got != tc.want {
			t.Errorf("ParseDuration(%q): expected %v, got %v", tc.raw, tc.want, got)
		}
	}
}

func TestCaptionStyleDefaults(t *testing.T) {
	style := CaptionStyle{}.WithDefaults()
	if style.FontSize != 24 {
		t.Errorf("expected default font size 24, got %d", style.FontSize)
	}
	if style.FontColor != "white" {
		t.Errorf("expected default font color white, got %s", style.FontColor)
	}
	if style.Position != "bottom" {
		t.Errorf("expected default position bottom, got %s", style.Position)
	}

	// Explicit values survive
	custom := CaptionStyle{FontSize: 32, FontColor: "yellow", Position: "top"}.WithDefaults()
	if custom.FontSize != 32 || custom.FontColor != "yellow" || custom.Position != "top" {
		t.Errorf("explicit style was overwritten: %+v", custom)
	}
}

func TestClipSettingsValidate(t *testing.T) {
	if err := (ClipSettings{DurationSeconds: 15}).Validate(); err != nil {
		t.Errorf("valid settings rejected: %v", err)
	}
	if err := (ClipSettings{DurationSeconds: 0}).Validate(); err == nil {
		t.Error("zero duration accepted")
	}
	if err := (ClipSettings{DurationSeconds: -3}).Validate(); err == nil {
		t.Error("negative duration accepted")
	}
}

func TestNewClipIdentityUnique(t *testing.T) {
	a := NewClipIdentity()
	b := NewClipIdentity()
	if a == "" || b == "" {
		t.Fatal("empty identity minted")
	}
	if a == b {
		t.Errorf("identities collide: %s", a)
	}
}

func TestClipResultLocation(t *testing.T) {
	result := ClipResult{
		Locations: []StorageLocation{
			{Tier: TierLocal, Path: "/tmp/clip.mp4"},
			{Tier: TierRemote, Path: "clips/clip.mp4"},
		},
	}

	local, ok := result.Location(TierLocal)
	if !ok || local.Path != "/tmp/clip.mp4" {
		t.Errorf("local location lookup failed: %+v", local)
	}

	remote, ok := result.Location(TierRemote)
	if !ok || remote.Path != "clips/clip.mp4" {
		t.Errorf("remote location lookup failed: %+v", remote)
	}

	if _, ok := (ClipResult{}).Location(TierLocal); ok {
		t.Error("empty result reported a location")
	}
}

func TestClipResultDegraded(t *testing.T) {
	if (ClipResult{}).Degraded() {
		t.Error("clean result reported degraded")
	}
	if !(ClipResult{Error: "upload failed"}).Degraded() {
		t.Error("result with error not reported degraded")
	}
}

func TestTierDeleteOutcomeOK(t *testing.T) {
	cases := []struct {
		name    string
		outcome TierDeleteOutcome
		want    bool
	}{
		{"not attempted", TierDeleteOutcome{}, true},
		{"not found", TierDeleteOutcome{Attempted: true}, true},
		{"deleted", TierDeleteOutcome{Attempted: true, Found: true, Deleted: true}, true},
		{"found but not deleted", TierDeleteOutcome{Attempted: true, Found: true}, false},
		{"provider error", TierDeleteOutcome{Attempted: true, Error: "timeout"}, false},
	}

	for _, tc := range cases {
		if got := tc.outcome.OK(); got != tc.want {
			t.Errorf("%s: expected OK=%v, got %v", tc.name, tc.want, got)
		}
	}
}
