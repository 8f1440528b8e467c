package clipaddr

import (
	"testing"

	"github.com/bobarin/clipforge/internal/models"
)

func TestFilenameRoundTrip(t *testing.T) {
	id := models.NewClipIdentity()

	filename := Filename(id)
	parsed, err := ParseFilename(filename)
	if err != nil {
		t.Fatalf("failed to parse generated filename %q: %v", filename, err)
	}
	if parsed != id {
		t.Errorf("round trip lost identity: %s != %s", parsed, id)
	}
}

func TestPathsAndKeys(t *testing.T) {
	id := models.ClipIdentity("abc-123")

	if got := Filename(id); got != "clip_abc-123.mp4" {
		t.Errorf("unexpected filename: %s", got)
	}
	if got := LocalPath("uploads/clips", id); got != "uploads/clips/clip_abc-123.mp4" {
		t.Errorf("unexpected local path: %s", got)
	}
	if got := RemoteKey(id); got != "clips/clip_abc-123.mp4" {
		t.Errorf("unexpected remote key: %s", got)
	}
	if got := VideoKey("/some/dir/source.mp4"); got != "videos/source.mp4" {
		t.Errorf("unexpected video key: %s", got)
	}
}

func TestParseFilenameRejectsForeign(t *testing.T) {
	bad := []string{
		"video.mp4",
		"clip_.mp4",
		"clip_abc.mov",
		"notclip_abc.mp4",
		"",
	}

	for _, name := range bad {
		if _, err := ParseFilename(name); err == nil {
			t.Errorf("accepted foreign filename %q", name)
		}
	}
}

func TestIsClipFilename(t *testing.T) {
	if !IsClipFilename("clip_xyz.mp4") {
		t.Error("rejected valid clip filename")
	}
	if IsClipFilename("source.mp4") {
		t.Error("accepted foreign filename")
	}
}
