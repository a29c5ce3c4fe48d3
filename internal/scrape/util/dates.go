package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reDaysShort = regexp.MustCompile(`^(\d+)d$`)
	reWeeks     = regexp.MustCompile(`^(\d+)w$`)
	reDaysAgo   = regexp.MustCompile(`(?i)^(\d+)\s*days?\s*ago$`)
	reHoursAgo  = regexp.MustCompile(`(?i)^(\d+)\s*hours?\s*ago$`)
	reWeeksAgo  = regexp.MustCompile(`(?i)^(\d+)\s*weeks?\s*ago$`)
)

var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`), "01/02/2006"},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
	{regexp.MustCompile(`([A-Za-z]{3,9} \d{1,2}, \d{4})`), "January 2, 2006"},
	{regexp.MustCompile(`([A-Za-z]{3,9} \d{1,2} \d{4})`), "January 2 2006"},
	{regexp.MustCompile(`([A-Za-z]{3} \d{1,2})`), "Jan 2"},
}

// ParsePostedToken turns the loose date tokens listing sources emit
// ("3d", "1w", "2 days ago", "08/12/2025", "Aug 12") into a time.
// Returns the zero time when nothing matches; callers sort unknowns
// last. now supplies "today" so results are reproducible in tests.
func ParsePostedToken(token string, now time.Time) time.Time {
	token = CleanText(token)
	if token == "" {
		return time.Time{}
	}

	if m := reDaysShort.FindStringSubmatch(token); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -n)
	}
	if m := reWeeks.FindStringSubmatch(token); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -7*n)
	}
	if m := reDaysAgo.FindStringSubmatch(token); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -n)
	}
	if m := reHoursAgo.FindStringSubmatch(token); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour)
	}
	if m := reWeeksAgo.FindStringSubmatch(token); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -7*n)
	}

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		txt := m[1]
		if p.layout == "Jan 2" {
			// month+day only; assume the current year
			if t, err := time.Parse("Jan 2, 2006", txt+", "+strconv.Itoa(now.Year())); err == nil {
				return t
			}
			continue
		}
		if t, err := time.Parse(p.layout, txt); err == nil {
			return t
		}
		// "Aug 12, 2025" style with abbreviated month
		if t, err := time.Parse(strings.Replace(p.layout, "January", "Jan", 1), txt); err == nil {
			return t
		}
	}
	return time.Time{}
}
