package dataset

import (
	"bytes"
	"testing"
	"time"

	"internscan/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func mk(company, role, loc, posted string) domain.Listing {
	return domain.Listing{
		Source:   "github:x/y",
		SourceID: company + "-" + role,
		Company:  company,
		Role:     role,
		Location: loc,
		Status:   "open",
		ApplyURL: "https://example.com/" + company,
		Posted:   posted,
	}
}

func TestMergeAddsNewAndStampsFirstSeen(t *testing.T) {
	merged, stats := Merge(nil, []domain.Listing{mk("Stripe", "Eng Intern", "SF, CA", "1d")}, now)
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, now, merged[0].FirstSeen)
}

func TestMergeIsIdempotent(t *testing.T) {
	incoming := []domain.Listing{
		mk("Stripe", "Eng Intern", "SF, CA", "1d"),
		mk("Shopify", "Dev Intern", "Toronto, ON", "3d"),
	}

	first, stats1 := Merge(nil, incoming, now)
	assert.Equal(t, 2, stats1.Added)

	// same upstream data a run later: nothing changes, FirstSeen kept
	later := now.Add(2 * time.Hour)
	second, stats2 := Merge(first, incoming, later)
	assert.Equal(t, 0, stats2.Added)
	assert.Equal(t, 0, stats2.Updated)
	assert.Equal(t, first, second)
}

func TestMergeNewerWinsOnConflict(t *testing.T) {
	old := mk("Stripe", "Eng Intern", "SF, CA", "1d")
	existing, _ := Merge(nil, []domain.Listing{old}, now)

	updated := old
	updated.Status = "closed"

	later := now.Add(24 * time.Hour)
	merged, stats := Merge(existing, []domain.Listing{updated}, later)
	require.Len(t, merged, 1)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, "closed", merged[0].Status)
	assert.Equal(t, now, merged[0].FirstSeen, "FirstSeen survives content updates")
}

func TestMergeRerunKeepsByteIdenticalOrder(t *testing.T) {
	// mix a relative posted token with an absolute date; the relative
	// one must not drift past the absolute one as days pass
	incoming := []domain.Listing{
		mk("RelCo", "Intern", "NY, NY", "3d"),
		mk("AbsCo", "Intern", "NY, NY", "08/18/2025"),
	}

	first, _ := Merge(nil, incoming, now)
	var a bytes.Buffer
	require.NoError(t, Write(&a, first))

	second, stats := Merge(first, incoming, now.AddDate(0, 0, 2))
	require.Zero(t, stats.Added)
	require.Zero(t, stats.Updated)
	var b bytes.Buffer
	require.NoError(t, Write(&b, second))

	assert.Equal(t, a.String(), b.String(), "no-op rerun reordered the dataset")
}

func TestMergeNoDuplicateKeys(t *testing.T) {
	a := mk("Stripe", "Eng Intern", "SF, CA", "1d")
	merged, _ := Merge([]domain.Listing{a, a}, []domain.Listing{a, a}, now)
	assert.Len(t, merged, 1)
}

func seen(l domain.Listing, at time.Time) domain.Listing {
	l.FirstSeen = at
	return l
}

func TestSortNewestFirstUnknownLast(t *testing.T) {
	ls := []domain.Listing{
		seen(mk("Old", "Intern", "NY, NY", "2w"), now),
		seen(mk("Unknown", "Intern", "NY, NY", ""), now),
		seen(mk("Fresh", "Intern", "NY, NY", "1d"), now),
	}
	Sort(ls)
	assert.Equal(t, "Fresh", ls[0].Company)
	assert.Equal(t, "Old", ls[1].Company)
	assert.Equal(t, "Unknown", ls[2].Company)
}

func TestSortTiesBreakByCompanyThenRole(t *testing.T) {
	ls := []domain.Listing{
		seen(mk("Zeta", "B Intern", "NY, NY", "1d"), now),
		seen(mk("Acme", "Z Intern", "NY, NY", "1d"), now),
		seen(mk("Acme", "A Intern", "NY, NY", "1d"), now),
	}
	Sort(ls)
	assert.Equal(t, "Acme", ls[0].Company)
	assert.Equal(t, "A Intern", ls[0].Role)
	assert.Equal(t, "Z Intern", ls[1].Role)
	assert.Equal(t, "Zeta", ls[2].Company)
}
