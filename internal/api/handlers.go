package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bobarin/clipforge/internal/clipaddr"
	"github.com/bobarin/clipforge/internal/models"
	"github.com/bobarin/clipforge/internal/services"
	"github.com/bobarin/clipforge/internal/storage"
)

const (
	defaultShareTTLSeconds = 3600
	minShareTTLSeconds     = 60
	maxShareTTLSeconds     = 604800 // 7 days, the S3 presign ceiling
	maxUploadBytes         = 500 << 20
)

// BatchGenerator runs one clip generation batch, one settings entry per slot.
type BatchGenerator interface {
	GenerateBatch(ctx context.Context, video models.VideoAsset, slots []models.ClipSettings, useScorer bool) ([]models.ClipResult, error)
}

// ClipEditor applies single transformations to existing clips.
type ClipEditor interface {
	TrimDuration(ctx context.Context, clipID models.ClipIdentity, newDuration float64) (models.ClipResult, error)
	SetCaptions(ctx context.Context, clipID models.ClipIdentity, on bool, style models.CaptionStyle) (models.ClipResult, error)
	SetAspectRatio(ctx context.Context, clipID models.ClipIdentity, ratio models.AspectRatio) (models.ClipResult, error)
}

// TierService is the slice of the storage tiering service the API drives.
// Satisfied by *storage.TieringService.
type TierService interface {
	RemoteEnabled() bool
	Status() models.StorageStatus
	Exists(ctx context.Context, logicalKey string) (bool, error)
	Stat(ctx context.Context, logicalKey string) (models.StorageLocation, error)
	Presign(ctx context.Context, logicalKey string, ttlSeconds int) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, logicalKey, contentType string) (models.StorageLocation, error)
	DeleteAllTiers(ctx context.Context, localPath, logicalKey string) ([]models.TierDeleteOutcome, bool)
}

type Handler struct {
	prober    services.VideoProber
	generator BatchGenerator
	editor    ClipEditor
	tiers     TierService
	clipsDir  string
	videosDir string
}

func NewHandler(prober services.VideoProber, generator BatchGenerator, editor ClipEditor, tiers TierService, clipsDir, videosDir string) *Handler {
	return &Handler{
		prober:    prober,
		generator: generator,
		editor:    editor,
		tiers:     tiers,
		clipsDir:  clipsDir,
		videosDir: videosDir,
	}
}

// GenerateClips handles POST /v1/clips/generate
func (h *Handler) GenerateClips(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateClipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.VideoPath == "" {
		respondError(w, http.StatusBadRequest, "video_path is required")
		return
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		respondError(w, http.StatusNotFound, "Video file not found")
		return
	}

	video, err := h.prober.Probe(r.Context(), req.VideoPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to probe video")
		return
	}

	opts := req.Settings
	settings := models.ClipSettings{
		DurationSeconds: models.ParseDuration(opts.Duration),
		AspectRatio:     opts.AspectRatio,
		CaptionsEnabled: true,
		CaptionStyle:    opts.CaptionStyle,
	}
	if opts.Captions != nil {
		settings.CaptionsEnabled = *opts.Captions
	}

	numClips := opts.NumClips
	if numClips < 1 {
		numClips = 1
	}
	slots := make([]models.ClipSettings, numClips)
	for i := range slots {
		slots[i] = settings
	}

	results, err := h.generator.GenerateBatch(r.Context(), video, slots, opts.UseScorer)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientDuration) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Clip generation failed: %v", err))
		return
	}

	var clips, degraded []models.ClipSummary
	for _, result := range results {
		summary := h.buildClipSummary(result)
		if result.Degraded() {
			degraded = append(degraded, summary)
		} else {
			clips = append(clips, summary)
		}
	}

	message := fmt.Sprintf("Generated %d clip(s)", len(clips))
	if len(degraded) > 0 {
		message = fmt.Sprintf("Generated %d clip(s), %d retained local-only after upload failure", len(results), len(degraded))
	}

	respondJSON(w, http.StatusOK, models.GenerateClipsResponse{
		Success:      true,
		Message:      message,
		Clips:        clips,
		Failed:       degraded,
		CloudStorage: h.tiers.Status(),
	})
}

// StreamClip handles GET /v1/clips/{id}/stream
// Serves the local copy with Range support; when only the remote copy exists
// the caller is redirected to a short-lived presigned URL.
func (h *Handler) StreamClip(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	localPath := clipaddr.LocalPath(h.clipsDir, clipID)
	if _, err := os.Stat(localPath); err == nil {
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, localPath)
		return
	}

	url, found := h.remoteURL(r.Context(), clipID, defaultShareTTLSeconds)
	if !found {
		respondError(w, http.StatusNotFound, "Clip not found")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// DownloadClip handles GET /v1/clips/{id}/download
func (h *Handler) DownloadClip(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	localPath := clipaddr.LocalPath(h.clipsDir, clipID)
	if _, err := os.Stat(localPath); err == nil {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clipaddr.Filename(clipID)))
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, localPath)
		return
	}

	url, found := h.remoteURL(r.Context(), clipID, defaultShareTTLSeconds)
	if !found {
		respondError(w, http.StatusNotFound, "Clip not found")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// ShareClip handles POST /v1/clips/{id}/share
// Issues a time-limited presigned URL. With the remote tier disabled the link
// falls back to this host's stream endpoint and carries no expiry.
func (h *Handler) ShareClip(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	ttl := defaultShareTTLSeconds
	if raw := r.URL.Query().Get("expires_in"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expires_in must be an integer number of seconds")
			return
		}
		ttl = parsed
	}
	if ttl < minShareTTLSeconds {
		ttl = minShareTTLSeconds
	}
	if ttl > maxShareTTLSeconds {
		ttl = maxShareTTLSeconds
	}

	if h.tiers.RemoteEnabled() {
		key := clipaddr.RemoteKey(clipID)
		exists, err := h.tiers.Exists(r.Context(), key)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to check remote tier")
			return
		}
		if exists {
			url, err := h.tiers.Presign(r.Context(), key, ttl)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to generate share link")
				return
			}
			expiresAt := time.Now().Add(time.Duration(ttl) * time.Second)
			respondJSON(w, http.StatusOK, models.ShareClipResponse{
				Success:   true,
				ShareURL:  url,
				Provider:  h.tiers.Status().Provider,
				ExpiresAt: &expiresAt,
				ExpiresIn: ttl,
			})
			return
		}
	}

	localPath := clipaddr.LocalPath(h.clipsDir, clipID)
	if _, err := os.Stat(localPath); err != nil {
		respondError(w, http.StatusNotFound, "Clip not found")
		return
	}

	respondJSON(w, http.StatusOK, models.ShareClipResponse{
		Success:  true,
		ShareURL: streamPath(clipID),
		Provider: models.ProviderLocal,
		Message:  "Remote tier unavailable for this clip; link serves from this host and does not expire",
	})
}

// ClipInfo handles GET /v1/clips/{id}/info
// Reports each tier's view of the clip independently.
func (h *Handler) ClipInfo(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	resp := models.ClipInfoResponse{
		Success:      true,
		ClipID:       clipID,
		CloudStorage: h.tiers.Status(),
	}

	local := &models.TierInfo{}
	localPath := clipaddr.LocalPath(h.clipsDir, clipID)
	if info, err := os.Stat(localPath); err == nil {
		local.Exists = true
		local.Path = localPath
		local.Size = info.Size()
		local.LastModified = info.ModTime()
	}
	resp.Local = local

	if h.tiers.RemoteEnabled() {
		remote := &models.TierInfo{}
		key := clipaddr.RemoteKey(clipID)
		loc, err := h.tiers.Stat(r.Context(), key)
		switch {
		case err == nil:
			remote.Exists = true
			remote.Path = key
			remote.Size = loc.Size
			remote.LastModified = loc.LastModified
			remote.ETag = loc.ETag
		case errors.Is(err, storage.ErrObjectNotFound):
			// Absent, not an error
		default:
			remote.Error = err.Error()
		}
		resp.Remote = remote
	}

	respondJSON(w, http.StatusOK, resp)
}

// DeleteClip handles DELETE /v1/clips/{id}
// Both tiers are attempted independently; absence on a tier is informational.
func (h *Handler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	localPath := clipaddr.LocalPath(h.clipsDir, clipID)
	outcomes, allOK := h.tiers.DeleteAllTiers(r.Context(), localPath, clipaddr.RemoteKey(clipID))

	found := false
	for _, outcome := range outcomes {
		if outcome.Found {
			found = true
		}
	}
	if !found && allOK {
		respondError(w, http.StatusNotFound, "Clip not found on any tier")
		return
	}

	status := http.StatusOK
	message := "Clip deleted"
	if !allOK {
		status = http.StatusInternalServerError
		message = "Clip deletion incomplete"
	}

	respondJSON(w, status, models.DeleteClipResponse{
		Success:   allOK,
		Message:   message,
		DeletedAt: time.Now().UTC(),
		Details:   outcomes,
	})
}

// EditDuration handles PUT /v1/clips/{id}/duration
func (h *Handler) EditDuration(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	var req models.EditDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.editor.TrimDuration(r.Context(), clipID, req.NewDuration)
	h.respondEdit(w, r, result, err, "Clip duration updated")
}

// EditCaptions handles PUT /v1/clips/{id}/captions
func (h *Handler) EditCaptions(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	var req models.EditCaptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.editor.SetCaptions(r.Context(), clipID, req.CaptionsOn, req.CaptionStyle)
	h.respondEdit(w, r, result, err, "Clip captions updated")
}

// EditAspectRatio handles PUT /v1/clips/{id}/aspect-ratio
func (h *Handler) EditAspectRatio(w http.ResponseWriter, r *http.Request) {
	clipID, ok := parseClipID(w, r)
	if !ok {
		return
	}

	var req models.EditAspectRatioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.editor.SetAspectRatio(r.Context(), clipID, req.NewAspectRatio)
	h.respondEdit(w, r, result, err, "Clip aspect ratio updated")
}

// respondEdit tiers the freshly edited clip and writes the edit response.
// The edit itself already succeeded; an upload failure only degrades the new
// clip to local-only.
func (h *Handler) respondEdit(w http.ResponseWriter, r *http.Request, result models.ClipResult, err error, message string) {
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClipNotFound):
			respondError(w, http.StatusNotFound, "Clip not found")
		case errors.Is(err, services.ErrInvalidDuration), errors.Is(err, services.ErrMissingParameter):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("Edit failed: %v", err))
		}
		return
	}

	if local, ok := result.Location(models.TierLocal); ok {
		location, upErr := h.tiers.UploadAndCleanup(r.Context(), local.Path, clipaddr.RemoteKey(result.Identity), "video/mp4")
		if upErr != nil {
			result.Error = upErr.Error()
		} else {
			result.Locations = []models.StorageLocation{location}
		}
	}

	respondJSON(w, http.StatusOK, models.EditClipResponse{
		Success:    true,
		Message:    message,
		EditedClip: h.buildClipSummary(result),
	})
}

// UploadVideo handles POST /v1/videos/upload
// Accepts a multipart source video, probes it, and suggests generation
// settings derived from the probe.
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "video file field is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
	default:
		respondError(w, http.StatusBadRequest, "Unsupported video format")
		return
	}

	videoID := uuid.New().String()
	destPath := filepath.Join(h.videosDir, videoID+ext)
	dest, err := os.Create(destPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store video")
		return
	}
	if _, err := dest.ReadFrom(file); err != nil {
		dest.Close()
		os.Remove(destPath)
		respondError(w, http.StatusInternalServerError, "Failed to store video")
		return
	}
	dest.Close()

	video, err := h.prober.Probe(r.Context(), destPath)
	if err != nil {
		os.Remove(destPath)
		respondError(w, http.StatusBadRequest, "Unsupported or corrupt video file")
		return
	}

	suggested := services.SuggestSettings(video)
	respondJSON(w, http.StatusOK, models.UploadVideoResponse{
		Success:   true,
		VideoID:   videoID,
		VideoPath: destPath,
		Metadata:  video,
		Suggested: &suggested,
	})
}

// VideoInfo handles GET /v1/videos/{id}
func (h *Handler) VideoInfo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	videoPath, found := h.findVideoPath(videoID)
	if !found {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	video, err := h.prober.Probe(r.Context(), videoPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to probe video")
		return
	}

	respondJSON(w, http.StatusOK, models.VideoInfoResponse{
		Success:      true,
		VideoID:      videoID,
		VideoPath:    videoPath,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Metadata:     video,
	})
}

// DeleteVideo handles DELETE /v1/videos/{id}
// Removes the uploaded source file only; clips generated from it are
// untouched.
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID, ok := parseVideoID(w, r)
	if !ok {
		return
	}

	videoPath, found := h.findVideoPath(videoID)
	if !found {
		respondError(w, http.StatusNotFound, "Video not found")
		return
	}

	if err := os.Remove(videoPath); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete video")
		return
	}

	respondJSON(w, http.StatusOK, models.DeleteVideoResponse{
		Success:   true,
		Message:   "Video deleted",
		DeletedAt: time.Now().UTC(),
	})
}

// findVideoPath locates an uploaded source video by its identity. Uploads are
// stored as <id><ext> with the original extension preserved, so the lookup
// scans for a matching stem.
func (h *Handler) findVideoPath(videoID string) (string, bool) {
	entries, err := os.ReadDir(h.videosDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == videoID {
			return filepath.Join(h.videosDir, name), true
		}
	}
	return "", false
}

// SuggestSettings handles GET /v1/videos/suggest-settings?path=...
func (h *Handler) SuggestSettings(w http.ResponseWriter, r *http.Request) {
	videoPath := r.URL.Query().Get("path")
	if videoPath == "" {
		respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	if _, err := os.Stat(videoPath); err != nil {
		respondError(w, http.StatusNotFound, "Video file not found")
		return
	}

	video, err := h.prober.Probe(r.Context(), videoPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to probe video")
		return
	}

	respondJSON(w, http.StatusOK, services.SuggestSettings(video))
}

// Cleanup handles POST /v1/cleanup
// Sweeps aged clips off the local tier. Remote objects are never touched.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	req := models.CleanupRequest{OlderThanHours: 24}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.OlderThanHours < 1 {
		req.OlderThanHours = 24
	}

	result, err := storage.SweepLocal(h.clipsDir, time.Duration(req.OlderThanHours)*time.Hour)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Cleanup sweep failed")
		return
	}

	respondJSON(w, http.StatusOK, models.CleanupResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d clip(s) older than %dh", result.Deleted, req.OlderThanHours),
		DeletedCount: result.Deleted,
	})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// remoteURL presigns the clip's remote copy, reporting whether it exists.
func (h *Handler) remoteURL(ctx context.Context, clipID models.ClipIdentity, ttl int) (string, bool) {
	if !h.tiers.RemoteEnabled() {
		return "", false
	}
	key := clipaddr.RemoteKey(clipID)
	exists, err := h.tiers.Exists(ctx, key)
	if err != nil || !exists {
		return "", false
	}
	url, err := h.tiers.Presign(ctx, key, ttl)
	if err != nil {
		return "", false
	}
	return url, true
}

func (h *Handler) buildClipSummary(result models.ClipResult) models.ClipSummary {
	summary := models.ClipSummary{
		ID:          result.Identity,
		Filename:    clipaddr.Filename(result.Identity),
		Provider:    string(models.ProviderLocal),
		URL:         streamPath(result.Identity),
		DownloadURL: fmt.Sprintf("/v1/clips/%s/download", result.Identity),
		ShareURL:    fmt.Sprintf("/v1/clips/%s/share", result.Identity),
		StartTime:   result.Segment.StartTimeSeconds,
		Duration:    result.Segment.DurationSeconds,
		AspectRatio: result.Settings.AspectRatio,
		Captions:    result.CaptionsApplied,
		Confidence:  result.Segment.Confidence,
		Reason:      result.Segment.Reason,
		CreatedAt:   time.Now().UTC(),
		Error:       result.Error,
	}

	if local, ok := result.Location(models.TierLocal); ok {
		summary.LocalPath = local.Path
	}
	if remote, ok := result.Location(models.TierRemote); ok {
		summary.Provider = string(remote.Provider)
		summary.RemoteURL = remote.PublicURL
		if remote.PublicURL != "" {
			summary.URL = remote.PublicURL
		}
	}

	return summary
}

// parseClipID extracts and validates the {id} path parameter. Identities are
// UUIDs, which also keeps path traversal out of file lookups.
func parseClipID(w http.ResponseWriter, r *http.Request) (models.ClipIdentity, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid clip ID")
		return "", false
	}
	return models.ClipIdentity(raw), true
}

func parseVideoID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	if _, err := uuid.Parse(raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid video ID")
		return "", false
	}
	return raw, true
}

func streamPath(id models.ClipIdentity) string {
	return fmt.Sprintf("/v1/clips/%s/stream", id)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
