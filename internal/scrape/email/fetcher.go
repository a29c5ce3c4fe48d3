package email_scrape

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/emersion/go-imap/v2"

	"internscan/internal/config"
	"internscan/internal/scrape/types"
)

// Fetcher turns a job-alert mailbox into a listing source. Messages
// are only marked seen via Finalize, after the run has published, so
// a failed publish re-reads them next run.
type Fetcher struct {
	Cfg      config.Config
	Password string

	// overridden in tests
	markSeenFn func(ctx context.Context, uids []imap.UID) error
}

func (f *Fetcher) Name() string { return "email" }

func (f *Fetcher) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	ec := f.Cfg.Sources.Email
	addr := fmt.Sprintf("%s:%d", ec.IMAPHost, ec.IMAPPort)

	c, err := DialAndLogin(ctx, addr, ec.Username, f.Password)
	if err != nil {
		return types.ScrapeResult{Source: "email"}, err
	}

	if err := SelectMailbox(c, ec.Mailbox); err != nil {
		LogoutAndClose(c)
		return types.ScrapeResult{Source: "email"}, err
	}

	msgs, err := FetchUnseen(ctx, c, ec.MaxMessages)
	if err != nil {
		LogoutAndClose(c)
		return types.ScrapeResult{Source: "email"}, err
	}

	// The fetch connection dies with the fetch context, and the
	// publish that follows can take minutes. Close now; Finalize
	// dials its own session to mark messages seen.
	LogoutAndClose(c)

	return f.buildResult(msgs), nil
}

func (f *Fetcher) buildResult(msgs []Message) types.ScrapeResult {
	ec := f.Cfg.Sources.Email
	res := types.ScrapeResult{Source: "email"}
	var processed []imap.UID

	for _, m := range msgs {
		if !subjectMatches(m.Subject, ec.SearchSubjectAny) {
			continue
		}
		htmlBody := HTMLBody(m.Raw)
		if htmlBody == "" {
			continue
		}

		listings, err := ParseAlertHTML(htmlBody)
		if err != nil {
			log.Printf("[email] parse alert uid=%d err=%v", m.UID, err)
			continue
		}
		for i := range listings {
			if !m.Date.IsZero() {
				listings[i].Posted = m.Date.Format("2006-01-02")
			}
		}
		res.Listings = append(res.Listings, listings...)
		processed = append(processed, m.UID)
	}

	log.Printf("[email] messages=%d matched=%d listings=%d", len(msgs), len(processed), len(res.Listings))

	markSeen := f.markSeenFn
	if markSeen == nil {
		markSeen = f.remarkSeen
	}
	res.Finalize = func(ctx context.Context) error {
		return markSeen(ctx, processed)
	}
	return res
}

// remarkSeen flags the processed messages on a fresh session, bound
// to the finalize context rather than the long-gone fetch one.
func (f *Fetcher) remarkSeen(ctx context.Context, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	ec := f.Cfg.Sources.Email
	addr := fmt.Sprintf("%s:%d", ec.IMAPHost, ec.IMAPPort)

	c, err := DialAndLogin(ctx, addr, ec.Username, f.Password)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, ec.Mailbox); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	if err := MarkSeen(c, uids); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// subjectMatches with an empty needle list accepts everything;
// validation warns about that at startup.
func subjectMatches(subject string, any []string) bool {
	if len(any) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, needle := range any {
		needle = strings.ToLower(strings.TrimSpace(needle))
		if needle != "" && strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
