package api

import (
	"context"
	"log"
	"time"

	"github.com/rowanvell/lexboard/internal/cache"
	"github.com/rowanvell/lexboard/internal/model"
)

// TaskSource is what the presentation surfaces consume: one call, the
// freshest task list available.
type TaskSource interface {
	Tasks(ctx context.Context) ([]model.Task, bool, error)
}

// Fetcher combines the GraphQL client with the local snapshot cache. A
// successful fetch replaces the stored snapshot; a failed fetch falls back
// to the snapshot so the board keeps rendering offline.
type Fetcher struct {
	Client *Client
	Cache  *cache.Store
	Limit  int
}

// Tasks returns the task list and whether it came from the stale cache
// rather than the network. Only when both the network and the cache come up
// empty does it return an error.
func (f *Fetcher) Tasks(ctx context.Context) ([]model.Task, bool, error) {
	tasks, fetchErr := f.Client.GetTasks(ctx, f.Limit)
	if fetchErr == nil {
		if f.Cache != nil {
			if err := f.Cache.SaveSnapshot(ctx, tasks, time.Now()); err != nil {
				log.Printf("save snapshot: %v", err)
			}
		}
		return tasks, false, nil
	}

	if f.Cache != nil {
		cached, fetchedAt, err := f.Cache.LoadSnapshot(ctx)
		if err == nil && !fetchedAt.IsZero() {
			log.Printf("fetch failed, serving snapshot from %s: %v", fetchedAt.Format(time.RFC3339), fetchErr)
			return cached, true, nil
		}
	}

	return nil, false, fetchErr
}
