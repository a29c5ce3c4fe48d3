package dataset

import (
	"sort"
	"strings"
	"time"

	"internscan/internal/domain"
	"internscan/internal/scrape/util"
)

type MergeStats struct {
	Added   int
	Updated int
	Total   int
}

// Merge folds incoming listings into the existing dataset by key.
// The incoming (newer fetch) row wins a key conflict, except when it
// matches the existing row on everything but FirstSeen; then the
// existing row is kept so a rerun with identical upstream data
// produces a byte-identical dataset.
func Merge(existing, incoming []domain.Listing, now time.Time) ([]domain.Listing, MergeStats) {
	byKey := make(map[string]domain.Listing, len(existing))
	var order []string

	for _, l := range existing {
		k := l.Key()
		if _, dup := byKey[k]; dup {
			continue // stale duplicate in a hand-edited dataset
		}
		byKey[k] = l
		order = append(order, k)
	}

	var stats MergeStats
	for _, l := range incoming {
		k := l.Key()
		cur, ok := byKey[k]
		if !ok {
			if l.FirstSeen.IsZero() {
				l.FirstSeen = now.UTC()
			}
			byKey[k] = l
			order = append(order, k)
			stats.Added++
			continue
		}
		if cur.SameContent(l) {
			continue
		}
		// changed row: keep the original FirstSeen, take the new content
		l.FirstSeen = cur.FirstSeen
		byKey[k] = l
		stats.Updated++
	}

	out := make([]domain.Listing, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	Sort(out)
	stats.Total = len(out)
	return out, stats
}

// Sort orders newest-posted-first, unknown dates last, then company
// and role. Relative tokens ("3d", "1w") are anchored to the row's
// FirstSeen, not the current run: an unchanged dataset must sort the
// same way tomorrow, or a no-op run would reorder the file and push a
// spurious commit.
func Sort(listings []domain.Listing) {
	posted := make(map[string]time.Time, len(listings))
	for _, l := range listings {
		anchor := l.FirstSeen
		if anchor.IsZero() {
			anchor = time.Now().UTC()
		}
		posted[l.Key()] = util.ParsePostedToken(l.Posted, anchor)
	}

	sort.SliceStable(listings, func(i, j int) bool {
		pi, pj := posted[listings[i].Key()], posted[listings[j].Key()]
		if !pi.Equal(pj) {
			if pi.IsZero() {
				return false
			}
			if pj.IsZero() {
				return true
			}
			return pi.After(pj)
		}
		ci := strings.ToLower(listings[i].Company)
		cj := strings.ToLower(listings[j].Company)
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(listings[i].Role) < strings.ToLower(listings[j].Role)
	})
}
