package watcher

import (
	"context"
	"time"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/fs"
)

// FilterNodeID is the unique identifier for the content filter Graft node.
// Watchers are created per watch session since they hold OS resources.
const FilterNodeID graft.ID = "adapter.watcher.filter"

// DefaultDebounceWindow is the default time window for debouncing file events.
const DefaultDebounceWindow = 50 * time.Millisecond

func init() {
	graft.Register(graft.Node[*ContentFilter]{
		ID:        FilterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.HasherNodeID, fs.WalkerNodeID},
		Run: func(ctx context.Context) (*ContentFilter, error) {
			hasher, err := graft.Dep[*fs.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			walker, err := graft.Dep[*fs.Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewContentFilter(hasher, walker, DefaultIgnores), nil
		},
	})
}
