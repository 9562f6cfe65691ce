package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rowanvell/lexboard/internal/cache"
	"github.com/rowanvell/lexboard/internal/model"
)

func newTestCache(t *testing.T) (*cache.Store, func()) {
	t.Helper()
	db, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return cache.NewStore(db), func() {
		_ = db.Close()
	}
}

func TestFetcherSavesSnapshotOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"tasks": [{"id": "t1", "title": "Draft motion", "status": "PENDING", "priority": "HIGH"}]}}`))
	}))
	defer server.Close()

	store, cleanup := newTestCache(t)
	defer cleanup()

	fetcher := &Fetcher{Client: NewClient(server.URL, ""), Cache: store, Limit: 10}
	tasks, stale, err := fetcher.Tasks(context.Background())
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if stale {
		t.Fatalf("expected fresh tasks")
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %v", tasks)
	}

	cached, fetchedAt, err := store.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if fetchedAt.IsZero() || len(cached) != 1 || cached[0].ID != "t1" {
		t.Fatalf("snapshot not saved")
	}
}

func TestFetcherFallsBackToSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close() // every request now fails

	store, cleanup := newTestCache(t)
	defer cleanup()

	seeded := []model.Task{{ID: "t1", Title: "Cached task", Status: model.StatusPending, Priority: model.PriorityLow}}
	if err := store.SaveSnapshot(context.Background(), seeded, time.Now()); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	fetcher := &Fetcher{Client: NewClient(endpoint, ""), Cache: store, Limit: 10}
	tasks, stale, err := fetcher.Tasks(context.Background())
	if err != nil {
		t.Fatalf("expected the snapshot fallback, got %v", err)
	}
	if !stale {
		t.Fatalf("expected the result marked stale")
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("unexpected tasks: %v", tasks)
	}
}

func TestFetcherErrorsWithEmptyCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	store, cleanup := newTestCache(t)
	defer cleanup()

	fetcher := &Fetcher{Client: NewClient(endpoint, ""), Cache: store, Limit: 10}
	if _, _, err := fetcher.Tasks(context.Background()); err == nil {
		t.Fatalf("expected an error with no network and no snapshot")
	}
}
