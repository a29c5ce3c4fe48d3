package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"internscan/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileMissingIsEmpty(t *testing.T) {
	listings, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	in := []domain.Listing{
		{
			Source:    "github:x/y",
			SourceID:  "abc123",
			Company:   "Stripe",
			Role:      "Software Engineering Intern",
			Location:  "San Francisco, CA",
			Status:    "open",
			ApplyURL:  "https://stripe.com/jobs/1",
			Posted:    "2d",
			FirstSeen: time.Date(2025, 8, 18, 9, 30, 0, 0, time.UTC),
		},
		{
			Source:   "internlist",
			SourceID: "def456",
			Company:  "Shopify, Inc.",
			Role:     "Dev Intern",
			Location: "Toronto, ON",
			Status:   "open",
			ApplyURL: "https://shopify.com/careers?id=2",
			Posted:   "2025-08-12",
		},
	}
	require.NoError(t, WriteFile(path, in))

	out, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadRejectsBadHeader(t *testing.T) {
	// headerless: a data row in position 0 must not be swallowed
	headerless := "github:x/y,abc,Stripe,Eng Intern,\"NY, NY\",open,,1d,\n"
	_, err := Read(strings.NewReader(headerless))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")

	// reordered columns would mis-map every field
	reordered := "company,source,source_id,role,location,status,application,posted,first_seen\n"
	_, err = Read(strings.NewReader(reordered))
	require.Error(t, err)
}

func TestWriteFileIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	in := []domain.Listing{{
		Source:   "github:x/y",
		SourceID: "abc123",
		Company:  "Stripe",
		Role:     "Eng Intern",
		Location: "NY, NY",
		Status:   "open",
	}}
	require.NoError(t, WriteFile(path, in))
	first := readBytes(t, path)
	require.NoError(t, WriteFile(path, in))
	assert.Equal(t, first, readBytes(t, path))
}

func readBytes(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}
