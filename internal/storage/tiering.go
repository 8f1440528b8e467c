// Package storage abstracts the two clip storage tiers (local filesystem and
// remote object store) behind one service. There are no cross-tier
// transactions: the local delete after a successful upload is sequential and
// best-effort, and a crash between the two leaves both copies present, which
// is a benign state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/bobarin/clipforge/internal/config"
	"github.com/bobarin/clipforge/internal/models"
)

var (
	// ErrUpload wraps remote-tier upload failures. Callers catch it and
	// retain the local copy rather than failing the containing operation.
	ErrUpload = errors.New("upload failed")

	// ErrPresign wraps presigned-link issuance failures.
	ErrPresign = errors.New("presign failed")

	// ErrDelete wraps remote-tier delete failures.
	ErrDelete = errors.New("delete failed")

	// ErrObjectNotFound is returned by ObjectStore implementations when the
	// key does not exist on the remote tier.
	ErrObjectNotFound = errors.New("object not found")
)

const (
	maxRetries     = 3
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 30 * time.Second
)

// ObjectInfo is remote-tier object metadata.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ObjectStore is the remote provider surface the tiering service drives.
// Implementations return ErrObjectNotFound from Head/Get for absent keys.
type ObjectStore interface {
	Put(ctx context.Context, key, localPath, contentType string) (etag string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Head(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	Provider() models.StorageProvider
}

// TieringService manages the two-tier storage model.
type TieringService struct {
	cfg   config.StorageConfig
	store ObjectStore // nil when the remote tier is disabled
}

// New builds the service from config, constructing the configured provider
// client when the remote tier is enabled.
func New(cfg config.StorageConfig) (*TieringService, error) {
	svc := &TieringService{cfg: cfg}

	if cfg.RemoteTierEnabled {
		switch cfg.Provider {
		case models.ProviderS3:
			store, err := NewS3Store(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to init S3 store: %w", err)
			}
			svc.store = store
		default:
			return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
		}
	}

	return svc, nil
}

// NewWithStore wires an explicit ObjectStore. Tests use this to substitute a
// fake remote tier.
func NewWithStore(cfg config.StorageConfig, store ObjectStore) *TieringService {
	return &TieringService{cfg: cfg, store: store}
}

// RemoteEnabled reports whether uploads target the remote tier.
func (s *TieringService) RemoteEnabled() bool {
	return s.cfg.RemoteTierEnabled && s.store != nil
}

// Status describes the configured tiers for API responses.
func (s *TieringService) Status() models.StorageStatus {
	status := models.StorageStatus{Enabled: s.RemoteEnabled(), Provider: models.ProviderLocal}
	if s.store != nil {
		status.Provider = s.store.Provider()
	}
	return status
}

// Upload pushes a local file to the remote tier under logicalKey. With the
// remote tier disabled it returns a Local descriptor pointing at localPath
// unchanged. Provider errors are wrapped in ErrUpload; the local file is
// never touched here.
func (s *TieringService) Upload(ctx context.Context, localPath, logicalKey, contentType string) (models.StorageLocation, error) {
	if !s.RemoteEnabled() {
		return s.localLocation(localPath), nil
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryDelay(attempt)
			log.Printf("[Storage] Upload retry %d/%d for %s (waiting %v)...", attempt, maxRetries, logicalKey, delay)

			select {
			case <-ctx.Done():
				return models.StorageLocation{}, fmt.Errorf("%w: cancelled: %v", ErrUpload, ctx.Err())
			case <-time.After(delay):
			}
		}

		etag, err := s.store.Put(ctx, logicalKey, localPath, contentType)
		if err != nil {
			lastErr = err
			continue
		}

		loc := models.StorageLocation{
			Tier:         models.TierRemote,
			Path:         logicalKey,
			Provider:     s.store.Provider(),
			PublicURL:    s.store.PublicURL(logicalKey),
			ETag:         etag,
			LastModified: time.Now().UTC(),
		}
		if info, statErr := os.Stat(localPath); statErr == nil {
			loc.Size = info.Size()
		}
		return loc, nil
	}

	return models.StorageLocation{}, fmt.Errorf("%w: %s after %d attempts: %v", ErrUpload, logicalKey, maxRetries+1, lastErr)
}

// UploadAndCleanup uploads, then deletes the local file iff the remote tier
// is enabled and the upload succeeded. On failure the local copy is always
// retained; local-only is a safe terminal state.
func (s *TieringService) UploadAndCleanup(ctx context.Context, localPath, logicalKey, contentType string) (models.StorageLocation, error) {
	loc, err := s.Upload(ctx, localPath, logicalKey, contentType)
	if err != nil {
		return models.StorageLocation{}, err
	}

	if s.RemoteEnabled() {
		// Ordered strictly after a successful upload; a failure here just
		// leaves both copies present until the next sweep or delete.
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[Storage] Could not clean up local file %s: %v", localPath, err)
		} else {
			log.Printf("[Storage] Local file cleaned up: %s", localPath)
		}
	}

	return loc, nil
}

// Exists checks the remote tier for logicalKey, degrading to a filesystem
// check when the remote tier is disabled.
func (s *TieringService) Exists(ctx context.Context, logicalKey string) (bool, error) {
	if !s.RemoteEnabled() {
		_, err := os.Stat(logicalKey)
		if err == nil {
			return true, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	_, err := s.store.Head(ctx, logicalKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return false, err
}

// Stat fetches a location descriptor for logicalKey on the active tier.
func (s *TieringService) Stat(ctx context.Context, logicalKey string) (models.StorageLocation, error) {
	if !s.RemoteEnabled() {
		info, err := os.Stat(logicalKey)
		if err != nil {
			return models.StorageLocation{}, err
		}
		loc := s.localLocation(logicalKey)
		loc.Size = info.Size()
		loc.LastModified = info.ModTime()
		return loc, nil
	}

	info, err := s.store.Head(ctx, logicalKey)
	if err != nil {
		return models.StorageLocation{}, err
	}

	return models.StorageLocation{
		Tier:         models.TierRemote,
		Path:         logicalKey,
		Provider:     s.store.Provider(),
		PublicURL:    s.store.PublicURL(logicalKey),
		ETag:         info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

// Presign issues a time-limited URL for direct access to a remote object.
// With the remote tier disabled the logical key is returned as-is.
func (s *TieringService) Presign(ctx context.Context, logicalKey string, ttlSeconds int) (string, error) {
	if !s.RemoteEnabled() {
		return logicalKey, nil
	}

	url, err := s.store.Presign(ctx, logicalKey, time.Duration(ttlSeconds)*time.Second)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPresign, logicalKey, err)
	}
	return url, nil
}

// Download copies a remote object to destPath. Used by the edit engine's
// fetch-through path.
func (s *TieringService) Download(ctx context.Context, logicalKey, destPath string) error {
	if !s.RemoteEnabled() {
		return fmt.Errorf("remote tier disabled, cannot download %s", logicalKey)
	}

	body, err := s.store.Get(ctx, logicalKey)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", logicalKey, err)
	}
	defer body.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, body); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

// DeleteLocal unlinks a local clip file. A missing file is reported
// informationally, not as a failure.
func (s *TieringService) DeleteLocal(localPath string) models.TierDeleteOutcome {
	outcome := models.TierDeleteOutcome{Tier: models.TierLocal, Attempted: true}

	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		return outcome
	}
	outcome.Found = true

	if err := os.Remove(localPath); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.Deleted = true
	return outcome
}

// DeleteRemote removes logicalKey from the remote tier. When the tier is
// disabled the outcome is marked not-attempted; absence of the object is
// informational.
func (s *TieringService) DeleteRemote(ctx context.Context, logicalKey string) models.TierDeleteOutcome {
	outcome := models.TierDeleteOutcome{Tier: models.TierRemote}
	if !s.RemoteEnabled() {
		return outcome
	}
	outcome.Attempted = true

	_, err := s.store.Head(ctx, logicalKey)
	if errors.Is(err, ErrObjectNotFound) {
		return outcome
	}
	if err != nil {
		outcome.Error = fmt.Errorf("%w: %s: %v", ErrDelete, logicalKey, err).Error()
		return outcome
	}
	outcome.Found = true

	if err := s.store.Delete(ctx, logicalKey); err != nil {
		outcome.Error = fmt.Errorf("%w: %s: %v", ErrDelete, logicalKey, err).Error()
		return outcome
	}
	outcome.Deleted = true
	return outcome
}

// DeleteAllTiers attempts both tiers independently, so a provider outage on
// one tier never blocks deletion on the other. Overall success requires every
// attempted tier to have either had nothing to delete or deleted cleanly.
func (s *TieringService) DeleteAllTiers(ctx context.Context, localPath, logicalKey string) ([]models.TierDeleteOutcome, bool) {
	remote := s.DeleteRemote(ctx, logicalKey)
	local := s.DeleteLocal(localPath)

	outcomes := []models.TierDeleteOutcome{remote, local}
	return outcomes, remote.OK() && local.OK()
}

func (s *TieringService) localLocation(path string) models.StorageLocation {
	return models.StorageLocation{
		Tier:     models.TierLocal,
		Path:     path,
		Provider: models.ProviderLocal,
	}
}

// retryDelay calculates exponential backoff with jitter: base * 2^attempt
// plus 0-25% random jitter to avoid thundering herd.
func retryDelay(attempt int) time.Duration {
	delay := float64(baseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxRetryDelay) {
		delay = float64(maxRetryDelay)
	}
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}
