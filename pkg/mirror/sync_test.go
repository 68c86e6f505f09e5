package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	derrors "decensor/pkg/errors"
	"decensor/pkg/logger"
	"decensor/pkg/retry"
)

// mockDataset is an httptest-backed stand-in for the dataset host
type mockDataset struct {
	mu          sync.Mutex
	batches     map[string]string // name -> content
	listCalls   int
	fetchCalls  map[string]int
	failListing bool
	failBatch   map[string]bool

	server *httptest.Server
}

func newMockDataset(batches map[string]string) *mockDataset {
	m := &mockDataset{
		batches:    batches,
		fetchCalls: make(map[string]int),
		failBatch:  make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/listing", m.handleListing)
	mux.HandleFunc("/batches/", m.handleBatch)
	m.server = httptest.NewServer(mux)

	return m
}

func (m *mockDataset) handleListing(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listCalls++

	if m.failListing {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	names := make([]string, 0, len(m.batches))
	for name := range m.batches {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]RemoteBatch, 0, len(names)+1)
	for _, name := range names {
		entries = append(entries, RemoteBatch{
			Name:        name,
			Type:        "file",
			DownloadURL: m.server.URL + "/batches/" + name,
		})
	}
	// Directory entries must be ignored by the lister
	entries = append(entries, RemoteBatch{Name: "archive", Type: "dir"})

	json.NewEncoder(w).Encode(entries)
}

func (m *mockDataset) handleBatch(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.TrimPrefix(r.URL.Path, "/batches/")
	m.fetchCalls[name]++

	if m.failBatch[name] {
		http.Error(w, "unavailable", http.StatusNotFound)
		return
	}

	content, ok := m.batches[name]
	if !ok {
		http.Error(w, "no such batch", http.StatusNotFound)
		return
	}
	w.Write([]byte(content))
}

func (m *mockDataset) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *mockDataset) FetchCalls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCalls[name]
}

func (m *mockDataset) Close() {
	m.server.Close()
}

func newTestSyncer(t *testing.T, ds *mockDataset) (*Syncer, *Store, string) {
	t.Helper()

	dataDir := t.TempDir()
	log := logger.NewTestLogger()
	store := NewStore(filepath.Join(dataDir, "batches"), log)
	client := NewClient(ds.server.URL+"/listing", 5*time.Second, log)

	stateFile := filepath.Join(dataDir, "last_sync_date")
	syncer := NewSyncer(store, client, SyncerOptions{
		StateFile: stateFile,
		Retry: &retry.Config{
			MaxAttempts: 1,
			Backoff:     &retry.ConstantBackoff{Delay: 0},
			RetryIf:     retry.DefaultRetryIf,
			Context:     context.Background(),
			Logger:      log,
		},
		Logger: log,
	})

	return syncer, store, stateFile
}

func TestSyncerFirstSyncFetchesEverything(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
		"3": "300:cccc3333.zip\n",
	})
	defer ds.Close()

	syncer, store, stateFile := newTestSyncer(t, ds)

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	local, err := store.LocalBatches()
	if err != nil {
		t.Fatalf("LocalBatches: %v", err)
	}
	if len(local) != 3 {
		t.Errorf("Expected 3 local batches, got %v", local)
	}

	if _, err := os.Stat(stateFile); err != nil {
		t.Errorf("Expected sync date to be recorded: %v", err)
	}
	if ds.ListCalls() != 1 {
		t.Errorf("Expected 1 listing call, got %d", ds.ListCalls())
	}
}

func TestSyncerIdempotentWithinDay(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
	})
	defer ds.Close()

	syncer, _, _ := newTestSyncer(t, ds)

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("First EnsureFresh: %v", err)
	}
	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("Second EnsureFresh: %v", err)
	}

	// The second call within the same day touches nothing remote
	if ds.ListCalls() != 1 {
		t.Errorf("Expected 1 listing call, got %d", ds.ListCalls())
	}
	if ds.FetchCalls("1") != 1 || ds.FetchCalls("2") != 1 {
		t.Errorf("Expected each batch fetched once, got 1:%d 2:%d",
			ds.FetchCalls("1"), ds.FetchCalls("2"))
	}
}

func TestSyncerNewDayTriggersResync(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
	})
	defer ds.Close()

	syncer, _, _ := newTestSyncer(t, ds)

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	// Next UTC day
	syncer.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh next day: %v", err)
	}
	if ds.ListCalls() != 2 {
		t.Errorf("Expected 2 listing calls across days, got %d", ds.ListCalls())
	}
}

func TestSyncerAlwaysRefetchesLatest(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
		"3": "300:cccc3333.zip\n",
	})
	defer ds.Close()

	syncer, store, _ := newTestSyncer(t, ds)

	// All three batches already present locally, batch 3 stale
	for name, content := range map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
		"3": "stale:ffff0000.jpg\n",
	} {
		if err := store.WriteBatch(name, strings.NewReader(content)); err != nil {
			t.Fatalf("WriteBatch: %v", err)
		}
	}

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	// Only the highest-numbered batch is refetched
	if ds.FetchCalls("1") != 0 || ds.FetchCalls("2") != 0 {
		t.Errorf("Expected batches 1 and 2 skipped, got 1:%d 2:%d",
			ds.FetchCalls("1"), ds.FetchCalls("2"))
	}
	if ds.FetchCalls("3") != 1 {
		t.Errorf("Expected batch 3 refetched, got %d", ds.FetchCalls("3"))
	}

	content, err := os.ReadFile(filepath.Join(store.Dir(), "3"))
	if err != nil {
		t.Fatalf("Failed to read batch 3: %v", err)
	}
	if string(content) != "300:cccc3333.zip\n" {
		t.Errorf("Batch 3 not refreshed, got %q", content)
	}
}

func TestSyncerListingFailureDoesNotAdvanceDate(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
	})
	defer ds.Close()

	syncer, _, stateFile := newTestSyncer(t, ds)

	ds.failListing = true
	err := syncer.EnsureFresh(context.Background())

	var listErr *derrors.ListingError
	if !errors.As(err, &listErr) {
		t.Fatalf("Expected ListingError, got %v", err)
	}

	if _, err := os.Stat(stateFile); !os.IsNotExist(err) {
		t.Error("Sync date must not be recorded after a listing failure")
	}

	// The failure is retried on the next call, not backed off for a day
	ds.failListing = false
	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh after recovery: %v", err)
	}
	if _, err := os.Stat(stateFile); err != nil {
		t.Errorf("Expected sync date recorded after recovery: %v", err)
	}
}

func TestSyncerBatchFailureStillAdvancesDate(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
		"3": "300:cccc3333.zip\n",
	})
	defer ds.Close()

	syncer, store, stateFile := newTestSyncer(t, ds)
	ds.failBatch["2"] = true

	// A single failed batch is skipped, not fatal
	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	local, err := store.LocalBatches()
	if err != nil {
		t.Fatalf("LocalBatches: %v", err)
	}
	if !local["1"] || !local["3"] {
		t.Errorf("Expected batches 1 and 3 stored, got %v", local)
	}
	if local["2"] {
		t.Error("Failed batch must not be stored")
	}

	// The day still counts: one remote attempt per day, even partial
	if _, err := os.Stat(stateFile); err != nil {
		t.Errorf("Expected sync date recorded despite batch failure: %v", err)
	}

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("Second EnsureFresh: %v", err)
	}
	if ds.ListCalls() != 1 {
		t.Errorf("Expected no retry within the day, got %d listing calls", ds.ListCalls())
	}
}

func TestSyncerRefreshIgnoresDailyToken(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
	})
	defer ds.Close()

	syncer, _, _ := newTestSyncer(t, ds)

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if err := syncer.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if ds.ListCalls() != 2 {
		t.Errorf("Expected forced refresh to hit the listing, got %d calls", ds.ListCalls())
	}
}

func TestSyncerBatchFailureLeavesLocalCopyUntouched(t *testing.T) {
	ds := newMockDataset(map[string]string{
		"1": "100:aaaa1111.jpg\n",
		"2": "200:bbbb2222.png\n",
	})
	defer ds.Close()

	syncer, store, _ := newTestSyncer(t, ds)

	// Batch 2 (the latest) exists locally and its refetch will fail
	if err := store.WriteBatch("2", strings.NewReader("200:oldcontent.png\n")); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	ds.failBatch["2"] = true

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(store.Dir(), "2"))
	if err != nil {
		t.Fatalf("Failed to read batch 2: %v", err)
	}
	if string(content) != "200:oldcontent.png\n" {
		t.Errorf("Existing copy must survive a failed refetch, got %q", content)
	}
}

func TestDateToken(t *testing.T) {
	// Unpadded, UTC
	when := time.Date(2026, time.March, 5, 23, 30, 0, 0, time.UTC)
	if got := dateToken(when); got != "2026-3-5" {
		t.Errorf("Expected 2026-3-5, got %s", got)
	}

	// A non-UTC time is converted before rendering
	est := time.FixedZone("EST", -5*3600)
	when = time.Date(2026, time.December, 31, 22, 0, 0, 0, est)
	if got := dateToken(when); got != "2027-1-1" {
		t.Errorf("Expected 2027-1-1, got %s", got)
	}
}

func TestSyncerLastSync(t *testing.T) {
	ds := newMockDataset(map[string]string{"1": "100:aaaa1111.jpg\n"})
	defer ds.Close()

	syncer, _, _ := newTestSyncer(t, ds)

	if _, ok := syncer.LastSync(); ok {
		t.Error("Expected no sync date before first sync")
	}

	if err := syncer.EnsureFresh(context.Background()); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}

	date, ok := syncer.LastSync()
	if !ok || date == "" {
		t.Errorf("Expected a sync date after sync, got %q", date)
	}
}
