package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/dqcheck-cli/internal/table"
	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one dataset in a batch, in input order.
type BatchItem struct {
	Path   string
	Result *Result
	Err    error
}

// RunBatch runs independent datasets with at most workers concurrent runs.
// One failing dataset does not stop the others. Unsupported extensions are
// rejected before any work is scheduled for them. Items are returned in the
// order of paths.
func RunBatch(ctx context.Context, paths []string, workers int, opt Options, obs Observer) []BatchItem {
	if workers <= 0 {
		workers = 1
	}
	if obs == nil {
		obs = Observers(nil)
	}
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	items := make([]BatchItem, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range paths {
		items[i].Path = p
		if !table.Supported(p) {
			items[i].Err = fmt.Errorf("%w: %s", table.ErrUnsupportedFormat, strings.ToLower(filepath.Ext(p)))
			obs.OnEvent(Event{Type: EventRunSkipped, Dataset: p, Timestamp: now(), Data: items[i].Err})
			continue
		}
		g.Go(func() error {
			res, err := Run(ctx, p, opt, obs)
			items[i].Result, items[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// Failed counts items with an error.
func Failed(items []BatchItem) int {
	n := 0
	for _, it := range items {
		if it.Err != nil {
			n++
		}
	}
	return n
}
