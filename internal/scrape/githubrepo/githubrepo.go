package githubrepo

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"internscan/internal/domain"
	"internscan/internal/httpx"
	"internscan/internal/scrape/types"
	"internscan/internal/scrape/util"
)

// Scraper pulls internship listings out of community-maintained GitHub
// repos (SimplifyJobs/Summer2026-Internships and friends) by fetching
// the README over the raw content endpoint and parsing its markdown
// pipe tables.
type Config struct {
	Repos []Repo
	Token string // optional; raises the rate limit for private mirrors
}

type Repo struct {
	Name   string // owner/repo
	Branch string
}

type Scraper struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	baseURL string // raw content host, overridden in tests
}

func New(cfg Config, limiter *util.HostLimiter) *Scraper {
	return &Scraper{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		baseURL: "https://raw.githubusercontent.com",
	}
}

func (s *Scraper) Name() string { return "github" }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	const workers = 4

	repos := s.cfg.Repos
	batchCh := make(chan []domain.Listing, len(repos))
	errCh := make(chan error, len(repos))
	workCh := make(chan Repo)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for r := range workCh {
				rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
				listings, err := s.fetchRepo(rctx, r)
				cancel()

				if err != nil {
					log.Printf("[source:github] repo=%q err=%v", r.Name, err)
					errCh <- err
					continue
				}
				if len(listings) > 0 {
					batchCh <- listings
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, r := range repos {
			select {
			case <-ctx.Done():
				return
			case workCh <- r:
			}
		}
	}()

	wg.Wait()
	close(batchCh)
	close(errCh)

	var out []domain.Listing
	for batch := range batchCh {
		out = append(out, batch...)
	}

	failures := 0
	var lastErr error
	for err := range errCh {
		failures++
		lastErr = err
	}

	// One dead repo is routine; all of them dead means the upstream
	// picture is unknown and must not read as "zero listings".
	if len(repos) > 0 && failures == len(repos) {
		return types.ScrapeResult{Source: "github"},
			fmt.Errorf("github: all %d repos failed: %w", len(repos), lastErr)
	}

	log.Printf("[github] parsed %d listings from %d repos (%d failed)", len(out), len(repos), failures)
	return types.ScrapeResult{Source: "github", Listings: out}, nil
}

// README filename variants seen across the listing repos.
var readmeNames = []string{"README.md", "readme.md", "README.MD"}

func (s *Scraper) fetchRepo(ctx context.Context, r Repo) ([]domain.Listing, error) {
	branch := r.Branch
	if branch == "" {
		branch = "main"
	}

	var lastErr error
	for _, fn := range readmeNames {
		rawURL := fmt.Sprintf("%s/%s/%s/%s", s.baseURL, r.Name, branch, fn)

		if s.limiter != nil {
			if err := s.limiter.WaitURL(ctx, rawURL); err != nil {
				return nil, err
			}
		}

		_, body, err := httpx.DoWithRetry(ctx, s.hc, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", httpx.UserAgent)
			if s.cfg.Token != "" {
				req.Header.Set("Authorization", "token "+s.cfg.Token)
			}
			return req, nil
		}, httpx.DefaultRetryConfig())

		if err != nil {
			lastErr = err
			continue // try the next filename variant
		}

		source := "github:" + r.Name
		return ParseTable(string(body), source), nil
	}

	return nil, fmt.Errorf("github fetch %s: %w", r.Name, lastErr)
}
