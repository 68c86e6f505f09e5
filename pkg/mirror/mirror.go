package mirror

import (
	"context"
	"path/filepath"
	"time"

	"decensor/pkg/config"
	"decensor/pkg/errors"
	"decensor/pkg/logger"
	"decensor/pkg/ratelimit"
	"decensor/pkg/retry"
)

// Mirror ties the store, client and syncer together behind the lookup API
type Mirror struct {
	store  *Store
	syncer *Syncer
	logger logger.Logger
}

// New creates a mirror from configuration. The data directory layout is
// <data_dir>/batches/<name> for batch files plus <data_dir>/last_sync_date.
func New(cfg *config.Config, log logger.Logger) *Mirror {
	if log == nil {
		log = logger.GetLogger()
	}

	store := NewStore(filepath.Join(cfg.Mirror.DataDir, "batches"), log)

	client := NewClient(cfg.Mirror.ListingURL, cfg.Mirror.HTTPTimeout, log)
	if cfg.Mirror.APIToken != "" {
		client.SetToken(cfg.Mirror.APIToken)
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Retry.MaxAttempts
	retryCfg.Backoff = &retry.ExponentialBackoff{
		BaseDelay:    cfg.Retry.BaseDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	retryCfg.Logger = log

	syncer := NewSyncer(store, client, SyncerOptions{
		StateFile: filepath.Join(cfg.Mirror.DataDir, "last_sync_date"),
		Limiter:   ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		Retry:     retryCfg,
		Logger:    log,
	})

	return &Mirror{
		store:  store,
		syncer: syncer,
		logger: log,
	}
}

// Find resolves a post ID to its MD5/extension pair, syncing the mirror
// first if it has not been synced today. A listing failure degrades to
// scanning whatever is already cached; the error is logged, not returned.
// Returns errors.ErrNotFound when the ID is in no batch.
func (m *Mirror) Find(ctx context.Context, postID int) (Identity, error) {
	if err := m.syncer.EnsureFresh(ctx); err != nil {
		m.logger.WarnWithFields("mirror sync failed, using cached data", map[string]interface{}{
			"post_id": postID,
			"error":   err.Error(),
		})
	}

	return m.store.Scan(postID)
}

// Sync refreshes the mirror. With force the daily token is ignored.
// Unlike Find, listing failures surface to the caller.
func (m *Mirror) Sync(ctx context.Context, force bool) error {
	if force {
		return m.syncer.Refresh(ctx)
	}
	return m.syncer.EnsureFresh(ctx)
}

// Store exposes the underlying batch store
func (m *Mirror) Store() *Store {
	return m.store
}

// LastSync returns the persisted sync date token, if any
func (m *Mirror) LastSync() (string, bool) {
	return m.syncer.LastSync()
}

// IsNotFound reports whether err is a lookup miss
func IsNotFound(err error) bool {
	return errors.IsNotFound(err)
}
