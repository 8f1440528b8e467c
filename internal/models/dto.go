package models

import "time"

// DTOs for API requests and responses.

type GenerateClipsRequest struct {
	VideoPath string            `json:"video_path"`
	Settings  GenerationOptions `json:"settings"`
}

// GenerationOptions is the wire shape of per-batch generation settings.
// Defaults: 15s clips, 16:9, 1 clip, captions on.
type GenerationOptions struct {
	Duration     string       `json:"duration,omitempty"` // "15s", "1m", "30"
	AspectRatio  AspectRatio  `json:"aspect_ratio,omitempty"`
	NumClips     int          `json:"num_clips,omitempty"`
	Captions     *bool        `json:"captions,omitempty"`
	CaptionStyle CaptionStyle `json:"caption_style,omitempty"`
	UseScorer    bool         `json:"use_ai_segments,omitempty"`
}

type ClipSummary struct {
	ID          ClipIdentity `json:"id"`
	Filename    string       `json:"filename"`
	LocalPath   string       `json:"local_path,omitempty"`
	RemoteURL   string       `json:"remote_url,omitempty"`
	Provider    string       `json:"provider"`
	URL         string       `json:"url"`
	DownloadURL string       `json:"download_url"`
	ShareURL    string       `json:"share_url"`
	StartTime   float64      `json:"start_time"`
	Duration    float64      `json:"duration"`
	AspectRatio AspectRatio  `json:"aspect_ratio"`
	Captions    bool         `json:"captions"`
	Confidence  float64      `json:"confidence,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Error       string       `json:"error,omitempty"`
}

type GenerateClipsResponse struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Clips        []ClipSummary `json:"clips"`
	Failed       []ClipSummary `json:"failed,omitempty"`
	CloudStorage StorageStatus `json:"cloud_storage"`
}

type StorageStatus struct {
	Enabled  bool            `json:"enabled"`
	Provider StorageProvider `json:"provider"`
}

type EditDurationRequest struct {
	NewDuration float64 `json:"new_duration"`
}

type EditCaptionsRequest struct {
	CaptionsOn   bool         `json:"captions_on"`
	CaptionStyle CaptionStyle `json:"caption_style,omitempty"`
}

type EditAspectRatioRequest struct {
	NewAspectRatio AspectRatio `json:"new_aspect_ratio"`
}

type EditClipResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	EditedClip ClipSummary `json:"edited_clip"`
}

type DeleteClipResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	DeletedAt time.Time           `json:"deleted_at"`
	Details   []TierDeleteOutcome `json:"details"`
}

type ShareClipResponse struct {
	Success   bool            `json:"success"`
	ShareURL  string          `json:"share_url"`
	Provider  StorageProvider `json:"provider"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	ExpiresIn int             `json:"expires_in,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type TierInfo struct {
	Exists       bool      `json:"exists"`
	Path         string    `json:"path,omitempty"`
	Size         int64     `json:"size,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type ClipInfoResponse struct {
	Success      bool          `json:"success"`
	ClipID       ClipIdentity  `json:"clip_id"`
	CloudStorage StorageStatus `json:"cloud_storage"`
	Remote       *TierInfo     `json:"remote,omitempty"`
	Local        *TierInfo     `json:"local"`
}

type CleanupRequest struct {
	OlderThanHours int `json:"older_than_hours,omitempty"` // default 24
}

type CleanupResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// SuggestedSettings are probe-derived generation defaults.
type SuggestedSettings struct {
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Duration    string      `json:"duration"`
	NumClips    int         `json:"num_clips"`
	Captions    bool        `json:"captions"`
}

type UploadVideoResponse struct {
	Success   bool               `json:"success"`
	VideoID   string             `json:"video_id"`
	VideoPath string             `json:"video_path"`
	Metadata  VideoAsset         `json:"metadata"`
	Suggested *SuggestedSettings `json:"suggested_settings,omitempty"`
}

type VideoInfoResponse struct {
	Success      bool       `json:"success"`
	VideoID      string     `json:"video_id"`
	VideoPath    string     `json:"video_path"`
	Size         int64      `json:"size"`
	LastModified time.Time  `json:"last_modified"`
	Metadata     VideoAsset `json:"metadata"`
}

type DeleteVideoResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	DeletedAt time.Time `json:"deleted_at"`
}
