package types

import (
	"context"

	"internscan/internal/domain"
)

type ScrapeResult struct {
	Source   string
	Listings []domain.Listing

	// Finalize runs only after a successful publish; the email source
	// uses it to mark messages seen so a failed run re-reads them.
	Finalize func(context.Context) error
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}

// SourceStatus is what a run records per source in the ledger.
type SourceStatus struct {
	Source  string
	Fetched int
	Err     string
}
