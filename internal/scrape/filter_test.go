package scrape

import (
	"testing"

	"internscan/internal/config"
	"internscan/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestKeepListing(t *testing.T) {
	var cfg config.Config

	tests := []struct {
		name   string
		l      domain.Listing
		keep   bool
		reason string
	}{
		{
			name:   "germany excluded",
			l:      domain.Listing{Company: "Acme", Role: "SWE Intern", Location: "Workday-only, Germany", Status: "open"},
			keep:   false,
			reason: "location",
		},
		{
			name:   "closed US excluded",
			l:      domain.Listing{Company: "Acme", Role: "SWE Intern", Location: "Remote, US", Status: "closed"},
			keep:   false,
			reason: "not_open",
		},
		{
			name: "toronto open included",
			l:    domain.Listing{Company: "Shopify", Role: "Dev Intern", Location: "Toronto, CA", Status: "open"},
			keep: true,
		},
		{
			name: "checkmark status counts as open",
			l:    domain.Listing{Company: "Stripe", Role: "Eng Intern", Location: "San Francisco, CA", Status: "✅"},
			keep: true,
		},
		{
			name:   "missing company dropped as malformed",
			l:      domain.Listing{Role: "SWE Intern", Location: "Austin, TX", Status: "open"},
			keep:   false,
			reason: "malformed",
		},
		{
			name:   "empty status is not open",
			l:      domain.Listing{Company: "Acme", Role: "SWE Intern", Location: "Austin, TX"},
			keep:   false,
			reason: "not_open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, reason := KeepListing(cfg, tt.l)
			assert.Equal(t, tt.keep, keep)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestKeepListingBlocklistWins(t *testing.T) {
	var cfg config.Config
	cfg.Filters.LocationsBlock = []string{"new york"}

	keep, reason := KeepListing(cfg, domain.Listing{
		Company: "Acme", Role: "SWE Intern", Location: "New York, NY", Status: "open",
	})
	assert.False(t, keep)
	assert.Equal(t, "location_blocked", reason)
}

func TestNormalize(t *testing.T) {
	l := Normalize(domain.Listing{
		Company:  "  Acme Corp ",
		Role:     " SWE  Intern ",
		Location: "Toronto, Toronto, ON",
		Status:   " Open ",
		ApplyURL: " https://example.com/apply ",
		Posted:   " 3d ",
	})
	assert.Equal(t, "Acme Corp", l.Company)
	assert.Equal(t, "SWE Intern", l.Role)
	assert.Equal(t, "Toronto, ON", l.Location)
	assert.Equal(t, "Open", l.Status)
	assert.Equal(t, "https://example.com/apply", l.ApplyURL)
	assert.Equal(t, "3d", l.Posted)
}
