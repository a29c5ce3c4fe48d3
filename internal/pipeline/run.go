// Package pipeline wires one scan end to end: fetch every enabled
// source, filter to open US/CA listings, merge into the published
// dataset and push. Sources fail independently; publishing does not.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"internscan/internal/config"
	"internscan/internal/dataset"
	"internscan/internal/domain"
	"internscan/internal/publish"
	"internscan/internal/scrape"
	email_scrape "internscan/internal/scrape/email"
	"internscan/internal/scrape/githubrepo"
	"internscan/internal/scrape/internlist"
	"internscan/internal/scrape/types"
	"internscan/internal/scrape/util"
	"internscan/internal/secrets"
	"internscan/internal/store"
)

// Publisher is what Run needs from the publish layer; the concrete
// implementation shells out to git.
type Publisher interface {
	Publish(ctx context.Context, incoming []domain.Listing, now time.Time) (publish.Result, error)
}

type Stats struct {
	Fetched   int
	Kept      int
	Dropped   map[string]int
	Merge     dataset.MergeStats
	Committed bool
	Attempts  int
	Sources   []types.SourceStatus
}

type outcome struct {
	res types.ScrapeResult
	err error
}

// Run executes one scan. The ledger write is best-effort; a publish
// failure is the only thing that fails the run.
func Run(ctx context.Context, cfg config.Config, db *store.DB, pub Publisher) (Stats, error) {
	fetchers, prefailed := buildFetchers(cfg)
	return run(ctx, cfg, db, pub, fetchers, prefailed)
}

func run(ctx context.Context, cfg config.Config, db *store.DB, pub Publisher, fetchers []types.Fetcher, prefailed []types.SourceStatus) (Stats, error) {
	start := time.Now().UTC()
	stats := Stats{Dropped: map[string]int{}}
	stats.Sources = append(stats.Sources, prefailed...)
	if len(fetchers) == 0 && len(prefailed) == 0 {
		return stats, errors.New("pipeline: no sources enabled")
	}

	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second

	var g errgroup.Group
	outcomes := make(chan outcome, len(fetchers))

	for _, f := range fetchers {
		f := f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[%s] Running...", f.Name())
			res, err := f.Fetch(fctx)
			if err != nil {
				log.Printf("[%s] error: %v", f.Name(), err)
				outcomes <- outcome{res: types.ScrapeResult{Source: f.Name()}, err: err}
				return nil // best-effort: don't cancel siblings
			}
			outcomes <- outcome{res: res}
			return nil
		})
	}

	_ = g.Wait()
	close(outcomes)

	var kept []domain.Listing
	var finals []func(context.Context) error
	failed := 0

	for o := range outcomes {
		st := types.SourceStatus{Source: o.res.Source, Fetched: len(o.res.Listings)}
		if o.err != nil {
			st.Err = o.err.Error()
			failed++
			stats.Sources = append(stats.Sources, st)
			continue
		}
		stats.Sources = append(stats.Sources, st)
		stats.Fetched += len(o.res.Listings)

		for _, l := range o.res.Listings {
			l = scrape.Normalize(l)
			keep, reason := scrape.KeepListing(cfg, l)
			if !keep {
				stats.Dropped[reason]++
				continue
			}
			kept = append(kept, l)
		}

		if o.res.Finalize != nil {
			finals = append(finals, o.res.Finalize)
		}
	}
	stats.Kept = len(kept)

	log.Printf("[pipeline] fetched=%d kept=%d dropped=%v sources=%d failed=%d",
		stats.Fetched, stats.Kept, stats.Dropped, len(fetchers), failed)

	// Every source down means the upstream picture is unknown; bail
	// rather than publish "no changes" on bad data.
	if len(fetchers) > 0 && failed == len(fetchers) {
		err := errors.New("pipeline: all sources failed")
		recordRun(db, start, stats, err)
		return stats, err
	}

	res, err := pub.Publish(ctx, kept, start)
	stats.Merge = res.Stats
	stats.Committed = res.Committed
	stats.Attempts = res.Attempts
	if err != nil {
		recordRun(db, start, stats, err)
		return stats, fmt.Errorf("pipeline: %w", err)
	}

	// Mark-seen hooks only fire once the data they came from is safely
	// in the remote dataset.
	for _, fin := range finals {
		fctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := fin(fctx); err != nil {
			log.Printf("[pipeline] finalize: %v", err)
		}
		cancel()
	}

	recordRun(db, start, stats, nil)
	return stats, nil
}

func buildFetchers(cfg config.Config) (fetchers []types.Fetcher, prefailed []types.SourceStatus) {
	limiter := util.NewHostLimiter(cfg.Fetch.PerHostRPS, cfg.Fetch.Burst)

	if cfg.Sources.GitHub.Enabled {
		gh := githubrepo.New(githubrepo.Config{
			Repos: mapRepos(cfg.Sources.GitHub.Repos),
			Token: secrets.GetGitHubToken(cfg),
		}, limiter)
		fetchers = append(fetchers, gh)
	}
	if cfg.Sources.InternList.Enabled {
		fetchers = append(fetchers, internlist.New(internlist.Config{URLs: cfg.Sources.InternList.URLs}, limiter))
	}
	if cfg.Sources.Email.Enabled {
		pw, err := secrets.GetIMAPPassword(cfg)
		if err != nil {
			log.Printf("[email] skipped: %v", err)
			prefailed = append(prefailed, types.SourceStatus{Source: "email", Err: err.Error()})
		} else {
			fetchers = append(fetchers, &email_scrape.Fetcher{Cfg: cfg, Password: pw})
		}
	}
	return fetchers, prefailed
}

func mapRepos(in []config.Repo) []githubrepo.Repo {
	out := make([]githubrepo.Repo, 0, len(in))
	for _, r := range in {
		out = append(out, githubrepo.Repo{Name: r.Name, Branch: r.Branch})
	}
	return out
}

// recordRun is deliberately off the run's context: a canceled run
// still gets its ledger row.
func recordRun(db *store.DB, start time.Time, stats Stats, runErr error) {
	if db == nil {
		return
	}
	rec := store.RunRecord{
		StartedAt:  start,
		FinishedAt: time.Now().UTC(),
		Added:      stats.Merge.Added,
		Updated:    stats.Merge.Updated,
		Total:      stats.Merge.Total,
		Committed:  stats.Committed,
		Attempts:   stats.Attempts,
	}
	if runErr != nil {
		rec.Err = runErr.Error()
	}
	for _, s := range stats.Sources {
		rec.Sources = append(rec.Sources, store.SourceRecord(s))
	}

	rctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.RecordRun(rctx, rec); err != nil {
		log.Printf("[pipeline] run ledger: %v", err)
	}
}
