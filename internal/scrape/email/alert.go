package email_scrape

import (
	"net/url"
	"regexp"
	"strings"

	"internscan/internal/domain"
	"internscan/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

var reJobID = regexp.MustCompile(`/jobs?/(?:view/)?(\d+)`)

// ParseAlertHTML extracts listings from a job-alert email body. Alert
// templates are anchor soup; cards for the same posting carry several
// anchors (logo, title, apply button), so results are merged per job
// id and only entries with both a URL and a role survive.
func ParseAlertHTML(htmlBody string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byKey := map[string]*domain.Listing{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		lh := strings.ToLower(href)
		if !strings.Contains(lh, "/jobs/") && !strings.Contains(lh, "/job/") {
			return
		}

		jobURL := unwrapTrackedURL(href)
		if jobURL == "" {
			return
		}

		sourceID := ""
		if m := reJobID.FindStringSubmatch(jobURL); len(m) == 2 {
			sourceID = m[1]
		} else {
			sourceID = util.HashString("url:" + jobURL)
		}

		l, ok := byKey[sourceID]
		if !ok {
			l = &domain.Listing{
				Source:   "email",
				SourceID: sourceID,
				ApplyURL: jobURL,
				Status:   "open",
			}
			byKey[sourceID] = l
			order = append(order, sourceID)
		}

		if t := util.CleanText(a.Text()); betterRole(t, l.Role) {
			l.Role = t
		}

		// "Company · Location" usually sits in a <p> inside the card
		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if t == "" || l.Company != "" {
				return
			}
			if strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				l.Company = strings.TrimSpace(parts[0])
				l.Location = util.NormalizeLocation(parts[1])
			}
		})
	})

	out := make([]domain.Listing, 0, len(byKey))
	for _, key := range order {
		l := byKey[key]
		if l.Role == "" || l.ApplyURL == "" {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

// unwrapTrackedURL strips the tracking wrapper alert senders put
// around job links (?url=..., google /url?q=...).
func unwrapTrackedURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	if u.Host != "" {
		return u.String()
	}
	return ""
}

func betterRole(candidate, current string) bool {
	c := strings.TrimSpace(candidate)
	if c == "" || len(c) < 5 {
		return false
	}
	low := strings.ToLower(c)
	for _, junk := range []string{"apply", "view job", "see all", "unsubscribe"} {
		if strings.Contains(low, junk) {
			return false
		}
	}
	return len(c) > len(strings.TrimSpace(current))
}
