package scrape

import (
	"strings"

	"internscan/internal/config"
	"internscan/internal/domain"
	"internscan/internal/scrape/util"
)

// KeepListing is the pure filter predicate: open US/CA listings only.
// reason is logged for dropped records.
func KeepListing(cfg config.Config, l domain.Listing) (keep bool, reason string) {
	if strings.TrimSpace(l.Company) == "" || strings.TrimSpace(l.Role) == "" {
		return false, "malformed"
	}

	loc := strings.ToLower(strings.TrimSpace(l.Location))

	// Blocklist wins
	for _, b := range cfg.Filters.LocationsBlock {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if strings.Contains(loc, b) {
			return false, "location_blocked"
		}
	}

	if !util.LooksLikeUSOrCanada(l.Location) {
		return false, "location"
	}

	if !util.IsOpenStatus(l.Status) {
		return false, "not_open"
	}

	return true, ""
}

// Normalize cleans a raw listing in place: whitespace, location
// segment dedupe, canonical apply URL.
func Normalize(l domain.Listing) domain.Listing {
	l.Company = util.CleanText(l.Company)
	l.Role = util.CleanText(l.Role)
	l.Location = util.NormalizeLocation(l.Location)
	l.Status = util.CleanText(l.Status)
	l.ApplyURL = strings.TrimSpace(l.ApplyURL)
	l.Posted = util.CleanText(l.Posted)
	return l
}
