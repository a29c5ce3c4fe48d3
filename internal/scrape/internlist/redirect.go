package internlist

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"internscan/internal/scrape/util"
)

// Resolver follows jobright-style apply redirects to recover the
// original job posting URL. Results are cached per run; redirectors
// serve the same target every time within a scrape.
type Resolver struct {
	hc      *http.Client
	limiter *util.HostLimiter
	cache   map[string]string
}

func NewResolver(hc *http.Client, limiter *util.HostLimiter) *Resolver {
	return &Resolver{
		hc:      hc,
		limiter: limiter,
		cache:   map[string]string{},
	}
}

// Resolve returns the final URL behind an apply link. Non-redirector
// links come back unchanged; any failure falls back to the input so a
// flaky redirector never loses the listing.
func (r *Resolver) Resolve(ctx context.Context, applyURL string) string {
	if !isRedirector(applyURL) {
		return applyURL
	}
	if cached, ok := r.cache[applyURL]; ok {
		return cached
	}

	resolved := r.follow(ctx, applyURL)
	r.cache[applyURL] = resolved
	return resolved
}

func (r *Resolver) follow(ctx context.Context, applyURL string) string {
	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.WaitURL(rctx, applyURL); err != nil {
			return applyURL
		}
	}

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, applyURL, nil)
	if err != nil {
		return applyURL
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	res, err := r.hc.Do(req)
	if err != nil {
		log.Printf("[internlist] redirect follow failed url=%s err=%v", applyURL, err)
		return applyURL
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()

	final := res.Request.URL.String()

	// still on the redirector: the target may hide in a query param
	if isRedirector(final) {
		if embedded := ExtractEmbeddedURL(final); embedded != "" {
			return embedded
		}
	}
	return final
}

func isRedirector(raw string) bool {
	return strings.Contains(strings.ToLower(raw), "jobright")
}

// param names redirectors use for the passthrough target
var embedParams = []string{"url", "redirect", "target", "link", "job_url"}

// ExtractEmbeddedURL pulls an absolute http(s) URL out of a
// redirector's query string, if present.
func ExtractEmbeddedURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, name := range embedParams {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			continue
		}
		if uu, err := url.Parse(v); err == nil && (uu.Scheme == "http" || uu.Scheme == "https") && uu.Host != "" {
			return v
		}
	}
	return ""
}
