package internlist

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardHTML = `<html><body>
<div class="job-listing">
  <h3 class="company">TechCorp</h3>
  <h2 class="job-title">Software Engineering Intern</h2>
  <span class="location">San Francisco, CA</span>
  <span class="date">2 days ago</span>
  <a href="https://example.com/techcorp-apply">Apply</a>
</div>
<div class="job-listing">
  <h3 class="company">CloudTech</h3>
  <h2 class="job-title">Product Management Intern</h2>
  <span class="location">Toronto, ON</span>
  <a href="/cloudtech/apply">Apply Now</a>
</div>
<div class="job-listing">
  <h3 class="company">NoRole Inc</h3>
</div>
</body></html>`

func TestExtractListings(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(boardHTML)))
	require.NoError(t, err)

	cards := findListingCards(doc)
	require.Equal(t, 3, cards.Length())

	var got []string
	cards.Each(func(_ int, card *goquery.Selection) {
		l, ok := extractListing(card, "https://intern-list.com")
		if !ok {
			return
		}
		got = append(got, l.Company)

		switch l.Company {
		case "TechCorp":
			assert.Equal(t, "Software Engineering Intern", l.Role)
			assert.Equal(t, "San Francisco, CA", l.Location)
			assert.Equal(t, "2 days ago", l.Posted)
			assert.Equal(t, "https://example.com/techcorp-apply", l.ApplyURL)
			assert.Equal(t, "open", l.Status)
		case "CloudTech":
			assert.Equal(t, "https://intern-list.com/cloudtech/apply", l.ApplyURL, "relative hrefs resolved against the board url")
		}
	})

	assert.Equal(t, []string{"TechCorp", "CloudTech"}, got, "card without a role is dropped")
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base string
		href string
		want string
	}{
		{"https://www.intern-list.com/", "/cloudtech/apply", "https://www.intern-list.com/cloudtech/apply"},
		{"https://www.intern-list.com/jobs/", "apply/7", "https://www.intern-list.com/jobs/apply/7"},
		{"https://www.intern-list.com/jobs/swe/", "../apply/1", "https://www.intern-list.com/jobs/apply/1"},
		{"https://www.intern-list.com/", "//cdn.jobright.ai/r/9", "https://cdn.jobright.ai/r/9"},
		{"https://www.intern-list.com/", "https://stripe.com/jobs/1", "https://stripe.com/jobs/1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, absoluteURL(tt.base, tt.href), "%s + %s", tt.base, tt.href)
	}
}

func TestFetchEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	s := New(Config{URLs: []string{srv.URL}}, nil)
	s.hc = srv.Client()
	s.resolver = NewResolver(srv.Client(), nil)

	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "internlist", res.Source)
	require.Len(t, res.Listings, 2)
	assert.NotEmpty(t, res.Listings[0].SourceID)
}

func TestFetchNoReachableBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := New(Config{URLs: []string{srv.URL}}, nil)
	s.hc = srv.Client()

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
}

func TestResolverFollowsRedirect(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("job page"))
	}))
	defer final.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/jobs/123", http.StatusFound)
	}))
	defer redirector.Close()

	r := NewResolver(http.DefaultClient, nil)
	got := r.Resolve(context.Background(), redirector.URL+"/jobright/apply/x")
	assert.Equal(t, final.URL+"/jobs/123", got)

	// non-redirector links pass through untouched
	assert.Equal(t, "https://stripe.com/jobs/1", r.Resolve(context.Background(), "https://stripe.com/jobs/1"))
}

func TestExtractEmbeddedURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://jobright.ai/land?url=https%3A%2F%2Fcareers.google.com%2Fjobs%2F1", "https://careers.google.com/jobs/1"},
		{"https://jobright.ai/land?job_url=https%3A%2F%2Famazon.jobs%2F9", "https://amazon.jobs/9"},
		{"https://jobright.ai/land?utm_source=x", ""},
		{"https://jobright.ai/land?url=not-a-url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractEmbeddedURL(tt.raw), tt.raw)
	}
}
