package mirror

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"decensor/pkg/logger"
	"decensor/pkg/ratelimit"
	"decensor/pkg/retry"
)

// Syncer keeps the local mirror fresh, at most one remote attempt per UTC
// calendar day.
type Syncer struct {
	store     *Store
	client    *Client
	stateFile string
	limiter   ratelimit.Limiter
	retryCfg  *retry.Config
	logger    logger.Logger

	// now is replaceable in tests
	now func() time.Time
}

// SyncerOptions configures a Syncer
type SyncerOptions struct {
	// StateFile holds the last-sync date token. Required.
	StateFile string
	// Limiter gates remote batch fetches. Defaults to unlimited.
	Limiter ratelimit.Limiter
	// Retry configures remote request retries. Defaults to retry.DefaultConfig.
	Retry *retry.Config
	// Logger defaults to the global logger.
	Logger logger.Logger
}

// NewSyncer creates a sync coordinator over the given store and client
func NewSyncer(store *Store, client *Client, opts SyncerOptions) *Syncer {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &Syncer{
		store:     store,
		client:    client,
		stateFile: opts.StateFile,
		limiter:   opts.Limiter,
		retryCfg:  opts.Retry,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// dateToken renders t as an unpadded UTC calendar-date token. Tokens are
// only ever compared for equality.
func dateToken(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%d-%d-%d", u.Year(), int(u.Month()), u.Day())
}

// EnsureFresh syncs the mirror unless a sync already happened today.
// Idempotent within a UTC calendar day: the second call on the same day
// touches neither the network nor the state file.
//
// A listing failure aborts the refresh without recording the day, so the
// next call retries. Individual batch failures do not: the day is still
// recorded, capping remote attempts at one per day.
func (s *Syncer) EnsureFresh(ctx context.Context) error {
	today := dateToken(s.now())

	if s.lastSyncDate() == today {
		return nil
	}

	return s.refresh(ctx, today)
}

// Refresh syncs unconditionally, ignoring the daily token. The date is
// still recorded on success.
func (s *Syncer) Refresh(ctx context.Context) error {
	return s.refresh(ctx, dateToken(s.now()))
}

func (s *Syncer) refresh(ctx context.Context, today string) error {
	s.logger.InfoWithFields("syncing dataset mirror", map[string]interface{}{
		"dir": s.store.Dir(),
	})

	retryCfg := *s.retryCfg
	retryCfg.Context = ctx

	remote, err := retry.DoWithResult(func() ([]RemoteBatch, error) {
		return s.client.ListBatches(ctx)
	}, &retryCfg)
	if err != nil {
		// Do not record the day; a failed listing should be retried on
		// the next lookup rather than backing off for 24h.
		return err
	}

	local, err := s.store.LocalBatches()
	if err != nil {
		return err
	}

	fetched, skipped, failed := s.syncBatches(ctx, &retryCfg, remote, local)

	s.logger.InfoWithFields("mirror sync finished", map[string]interface{}{
		"remote":  len(remote),
		"fetched": fetched,
		"skipped": skipped,
		"failed":  failed,
	})

	// Partial fetch failures still count as today's attempt
	return s.writeSyncDate(today)
}

// syncBatches fetches every remote batch not yet held locally. The
// highest-numbered remote batch is always refetched: it is the only one
// still growing upstream. A failed fetch is skipped, leaving any existing
// local copy untouched.
func (s *Syncer) syncBatches(ctx context.Context, retryCfg *retry.Config, remote []RemoteBatch, local map[string]bool) (fetched, skipped, failed int) {
	for i, batch := range remote {
		last := i == len(remote)-1
		if local[batch.Name] && !last {
			skipped++
			continue
		}

		s.limiter.Wait()

		body, err := retry.DoWithResult(func() (io.ReadCloser, error) {
			return s.client.FetchBatch(ctx, batch)
		}, retryCfg)
		if err != nil {
			failed++
			s.logger.WarnWithFields("skipping batch after failed fetch", map[string]interface{}{
				"batch": batch.Name,
				"error": err.Error(),
			})
			continue
		}

		err = s.store.WriteBatch(batch.Name, body)
		body.Close()
		if err != nil {
			failed++
			s.logger.WarnWithFields("skipping batch after failed write", map[string]interface{}{
				"batch": batch.Name,
				"error": err.Error(),
			})
			continue
		}

		fetched++
		s.logger.DebugWithFields("batch stored", map[string]interface{}{
			"batch":     batch.Name,
			"refetched": local[batch.Name],
		})
	}

	return fetched, skipped, failed
}

// lastSyncDate reads the persisted date token. Missing or unreadable
// state means never synced.
func (s *Syncer) lastSyncDate() string {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// LastSync returns the persisted date token and whether one exists
func (s *Syncer) LastSync() (string, bool) {
	date := s.lastSyncDate()
	return date, date != ""
}

func (s *Syncer) writeSyncDate(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.stateFile), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(s.stateFile, []byte(token+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write sync date: %w", err)
	}
	return nil
}
