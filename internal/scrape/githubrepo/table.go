package githubrepo

import (
	"regexp"
	"strings"

	"internscan/internal/domain"
	"internscan/internal/scrape/util"
)

var (
	reHTTPURL   = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)
	reMDLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reDateCell  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}|[A-Za-z]{3} \d{1,2}|\d+[dw]\b`)
	reSeparator = regexp.MustCompile(`^[-: ]+$`)
)

// ParseTable extracts listings from markdown pipe tables. Row shape
// across the listing repos: company | role | location | link | date,
// with status sometimes its own cell and sometimes an emoji inside
// another one. Cells after role are classified by content rather than
// by position, since every repo orders them differently.
func ParseTable(text, source string) []domain.Listing {
	var out []domain.Listing

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "---") {
			continue
		}

		var parts []string
		for _, p := range strings.Split(line, "|") {
			p = strings.TrimSpace(p)
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) < 3 {
			continue
		}

		company := cleanCell(parts[0])
		role := cleanCell(parts[1])
		if company == "" || role == "" {
			continue
		}
		if reSeparator.MatchString(company) || strings.EqualFold(company, "company") {
			continue // table separator / header row
		}
		// "↳" means same company as the previous row
		if company == "↳" && len(out) > 0 {
			company = out[len(out)-1].Company
		}

		l := domain.Listing{
			Source:  source,
			Company: company,
			Role:    role,
		}

		for _, p := range parts[2:] {
			if strings.Contains(p, "http") && l.ApplyURL == "" {
				l.ApplyURL = reHTTPURL.FindString(p)
			}
			if util.IsOpenStatus(p) && l.Status == "" {
				l.Status = cleanCell(p)
			}
			if reDateCell.MatchString(p) && l.Posted == "" {
				l.Posted = cleanCell(p)
			}
			if util.LooksLikeUSOrCanada(p) && l.Location == "" {
				l.Location = cleanCell(p)
			}
		}
		if l.Location == "" {
			l.Location = cleanCell(parts[2])
		}

		if l.ApplyURL != "" {
			l.SourceID = util.HashString("url:" + l.ApplyURL)
		}

		out = append(out, l)
	}

	return out
}

// cleanCell strips markdown links, bold markers, and inline HTML tags
// from a table cell, leaving display text. URLs are pulled separately.
func cleanCell(s string) string {
	s = reMDLink.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, "**", "")
	for {
		open := strings.Index(s, "<")
		if open < 0 {
			break
		}
		end := strings.Index(s[open:], ">")
		if end < 0 {
			break
		}
		s = s[:open] + " " + s[open+end+1:]
	}
	return util.CleanText(s)
}
