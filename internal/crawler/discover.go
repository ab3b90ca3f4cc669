package crawler

import (
	"context"
	"regexp"

	"golang.org/x/sync/errgroup"
)

// discovered is one locator found during discovery. Pages above the last
// level were fetched to follow their links; page is nil if that failed.
type discovered struct {
	locator string
	page    *page
	fetched bool
}

// Discover walks the link graph breadth-first from seed and returns every
// locator within depth hops, seed first, each exactly once. Pages at the
// last level are listed but not fetched. Only hrefs matching linkFilter are
// followed; a nil filter follows everything. Unreachable pages simply
// contribute no links.
func (f *Fetcher) Discover(ctx context.Context, seed string, depth int, linkFilter *regexp.Regexp) []string {
	found := f.discover(ctx, seed, depth, linkFilter)
	locators := make([]string, len(found))
	for i, d := range found {
		locators[i] = d.locator
	}
	return locators
}

// discover is Discover keeping the pages it fetched along the way.
func (f *Fetcher) discover(ctx context.Context, seed string, depth int, linkFilter *regexp.Regexp) []discovered {
	start, ok := resolveLink(nil, seed)
	if !ok {
		f.logger.Warn("seed is not an absolute http(s) url", "seed", seed)
		return nil
	}
	visited := map[string]struct{}{start: {}}
	found := []discovered{{locator: start}}
	// frontier holds indexes into found.
	frontier := []int{0}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		if ctx.Err() != nil {
			break
		}
		locators := make([]string, len(frontier))
		for i, idx := range frontier {
			locators[i] = found[idx].locator
		}
		pages := f.fetchLevel(ctx, locators, linkFilter)
		next := make([]int, 0)
		for i, p := range pages {
			found[frontier[i]].page = p
			found[frontier[i]].fetched = true
			if p == nil {
				continue
			}
			for _, link := range p.links {
				if _, seen := visited[link]; seen {
					continue
				}
				if f.cfg.MaxPages > 0 && len(found) >= f.cfg.MaxPages {
					break
				}
				visited[link] = struct{}{}
				found = append(found, discovered{locator: link})
				next = append(next, len(found)-1)
			}
		}
		f.logger.Debug("discovery level complete",
			"level", level,
			"fetched", len(frontier),
			"new_links", len(next),
		)
		frontier = next
	}
	return found
}

// fetchLevel fetches one BFS level concurrently. The result is index-aligned
// with frontier; failed pages are nil.
func (f *Fetcher) fetchLevel(ctx context.Context, frontier []string, linkFilter *regexp.Regexp) []*page {
	pages := make([]*page, len(frontier))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(f.cfg.Concurrency, 1))
	for i, locator := range frontier {
		g.Go(func() error {
			p, err := f.fetchPage(gctx, locator, linkFilter)
			if err == nil {
				pages[i] = p
			}
			return nil
		})
	}
	_ = g.Wait()
	return pages
}
