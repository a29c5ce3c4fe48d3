package internlist

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"internscan/internal/domain"
	"internscan/internal/httpx"
	"internscan/internal/scrape/types"
	"internscan/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// Scraper pulls listings off intern-list style HTML boards. The sites
// ship no API and change markup often, so extraction tries a ladder of
// selector candidates and falls back to table rows / list items.
type Config struct {
	URLs []string // candidate board URLs, first reachable one wins
}

type Scraper struct {
	cfg      Config
	hc       *http.Client
	resolver *Resolver
	limiter  *util.HostLimiter
}

func New(cfg Config, limiter *util.HostLimiter) *Scraper {
	hc := &http.Client{Timeout: 20 * time.Second}
	return &Scraper{
		cfg:      cfg,
		hc:       hc,
		resolver: NewResolver(hc, limiter),
		limiter:  limiter,
	}
}

func (s *Scraper) Name() string { return "internlist" }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	body, boardURL, err := s.firstReachable(ctx)
	if err != nil {
		return types.ScrapeResult{Source: "internlist"}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return types.ScrapeResult{Source: "internlist"}, fmt.Errorf("internlist parse html: %w", err)
	}

	cards := findListingCards(doc)
	log.Printf("[internlist] board=%s cards=%d", boardURL, len(cards.Nodes))

	seen := map[string]bool{}
	var out []domain.Listing

	cards.Each(func(_ int, card *goquery.Selection) {
		l, ok := extractListing(card, boardURL)
		if !ok {
			return
		}

		// apply links often route through a jobright-style redirector;
		// recover the company's own posting URL
		if l.ApplyURL != "" {
			l.ApplyURL = s.resolver.Resolve(ctx, l.ApplyURL)
			l.SourceID = util.HashString("url:" + l.ApplyURL)
		}

		// boards repeat cards across sections; dedupe by apply URL
		key := l.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, l)
	})

	log.Printf("[internlist] extracted %d listings", len(out))
	return types.ScrapeResult{Source: "internlist", Listings: out}, nil
}

func (s *Scraper) firstReachable(ctx context.Context) (body []byte, boardURL string, err error) {
	var lastErr error
	for _, u := range s.cfg.URLs {
		if s.limiter != nil {
			if err := s.limiter.WaitURL(ctx, u); err != nil {
				return nil, "", err
			}
		}
		b, err := httpx.Get(ctx, s.hc, u, httpx.RetryConfig{MaxAttempts: 2, BaseDelay: time.Second})
		if err != nil {
			log.Printf("[internlist] board=%s unreachable: %v", u, err)
			lastErr = err
			continue
		}
		return b, u, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no board urls configured")
	}
	return nil, "", fmt.Errorf("internlist: no reachable board: %w", lastErr)
}

// selector ladders, most specific first
var cardSelectors = []string{
	".job-listing",
	".internship-item",
	".position-card",
	"[class*='job-card']",
	"[class*='listing']",
}

func findListingCards(doc *goquery.Document) *goquery.Selection {
	for _, sel := range cardSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	if rows := doc.Find("table tr"); rows.Length() > 1 {
		return rows.Slice(1, rows.Length()) // skip header row
	}
	return doc.Find("li")
}

var (
	companySelectors  = []string{".company", ".company-name", "[class*='company']", "h3", "h4"}
	roleSelectors     = []string{".job-title", ".role", ".position", "[class*='title']", "h2"}
	locationSelectors = []string{".location", ".city", "[class*='location']", "[class*='city']"}
	dateSelectors     = []string{".date", ".posted", "[class*='date']", "[class*='posted']"}
)

func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := util.CleanText(card.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func extractListing(card *goquery.Selection, baseURL string) (domain.Listing, bool) {
	l := domain.Listing{
		Source:   "internlist",
		Company:  firstText(card, companySelectors),
		Role:     firstText(card, roleSelectors),
		Location: util.NormalizeLocation(firstText(card, locationSelectors)),
		Posted:   firstText(card, dateSelectors),
		Status:   "open", // the boards only show live listings
	}
	if l.Company == "" || l.Role == "" {
		return domain.Listing{}, false
	}

	card.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		low := strings.ToLower(href)
		text := strings.ToLower(util.CleanText(a.Text()))
		if strings.Contains(low, "apply") || strings.Contains(low, "jobright") || strings.Contains(text, "apply") {
			l.ApplyURL = absoluteURL(baseURL, href)
			return false
		}
		return true
	})

	return l, true
}

// absoluteURL resolves an href against the board URL, handling
// scheme-relative (//host/path) and dot-segment forms too.
func absoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
