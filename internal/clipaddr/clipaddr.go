// Package clipaddr maps clip identities onto filenames and storage keys.
//
// There is no database: a clip's identity and both of its possible locations
// are recoverable purely from the naming convention below. Keeping that
// convention behind this package means a future index could replace it
// without touching the transcode or storage layers.
//
// Convention:
//
//	local:  <clipsDir>/clip_<identity>.mp4
//	remote: clips/clip_<identity>.mp4
//	source videos: videos/<filename>
package clipaddr

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bobarin/clipforge/internal/models"
)

const (
	clipPrefix   = "clip_"
	clipExt      = ".mp4"
	remoteFolder = "clips"
	videoFolder  = "videos"
)

// Filename returns the canonical filename for a clip identity.
func Filename(id models.ClipIdentity) string {
	return clipPrefix + id.String() + clipExt
}

// LocalPath returns the clip's path under the local clips directory.
func LocalPath(clipsDir string, id models.ClipIdentity) string {
	return filepath.Join(clipsDir, Filename(id))
}

// RemoteKey returns the clip's object key on the remote tier.
func RemoteKey(id models.ClipIdentity) string {
	return path.Join(remoteFolder, Filename(id))
}

// VideoKey returns the remote object key for an uploaded source video.
func VideoKey(filename string) string {
	return path.Join(videoFolder, filepath.Base(filename))
}

// ParseFilename recovers the identity from a clip filename.
func ParseFilename(filename string) (models.ClipIdentity, error) {
	base := filepath.Base(filename)
	if !strings.HasPrefix(base, clipPrefix) || !strings.HasSuffix(base, clipExt) {
		return "", fmt.Errorf("not a clip filename: %s", base)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(base, clipPrefix), clipExt)
	if id == "" {
		return "", fmt.Errorf("empty clip identity in filename: %s", base)
	}
	return models.ClipIdentity(id), nil
}

// IsClipFilename reports whether a filename follows the clip convention.
// The cleanup sweep uses this to skip foreign files in the clips directory.
func IsClipFilename(filename string) bool {
	_, err := ParseFilename(filename)
	return err == nil
}
