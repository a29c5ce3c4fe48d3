// Package publish merges a run's listings into the dataset checked out
// in a git worktree and pushes the result. A concurrent push from
// elsewhere is absorbed by re-syncing the worktree and re-merging, up
// to a bounded number of attempts.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"internscan/internal/config"
	"internscan/internal/dataset"
	"internscan/internal/domain"
)

// ErrAttemptsExhausted is returned when every push attempt was
// rejected by the remote.
var ErrAttemptsExhausted = errors.New("publish: push attempts exhausted")

type Result struct {
	Committed bool
	Attempts  int
	Stats     dataset.MergeStats
}

type Publisher struct {
	Cfg config.Config
	Run Runner
	Log *log.Logger
}

func New(cfg config.Config) *Publisher {
	return &Publisher{
		Cfg: cfg,
		Run: NewRunner(),
		Log: log.New(log.Writer(), "[publish] ", log.LstdFlags),
	}
}

// Publish folds incoming into the dataset and pushes a commit. The
// merge is recomputed from the freshly synced worktree on every
// attempt, so a rejected push never loses the other writer's rows.
func (p *Publisher) Publish(ctx context.Context, incoming []domain.Listing, now time.Time) (Result, error) {
	var res Result

	pub := p.Cfg.Publish
	csvAbs := filepath.Join(pub.RepoDir, pub.CSVPath)

	// One publisher per machine; a second overlapping run waits here
	// rather than fighting over the worktree.
	fl := flock.New(pub.RepoDir + ".lock")
	locked, err := fl.TryLockContext(ctx, 500*time.Millisecond)
	if err != nil {
		return res, fmt.Errorf("publish: lock: %w", err)
	}
	if !locked {
		return res, errors.New("publish: lock not acquired")
	}
	defer fl.Unlock()

	for attempt := 1; attempt <= pub.MaxAttempts; attempt++ {
		res.Attempts = attempt

		if err := p.sync(ctx); err != nil {
			return res, err
		}

		existing, err := dataset.ReadFile(csvAbs)
		if err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}

		merged, stats := dataset.Merge(existing, incoming, now)
		res.Stats = stats

		if err := dataset.WriteFile(csvAbs, merged); err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}

		dirty, err := p.worktreeDirty(ctx, pub.CSVPath)
		if err != nil {
			return res, err
		}
		if !dirty {
			p.Log.Printf("dataset unchanged (%d rows), nothing to push", stats.Total)
			return res, nil
		}

		if _, err := p.Run.Run(ctx, pub.RepoDir, "add", "--", pub.CSVPath); err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
		msg := commitMessage(pub.CommitPrefix, stats)
		if _, err := p.Run.Run(ctx, pub.RepoDir, "commit", "-m", msg); err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}

		_, err = p.Run.Run(ctx, pub.RepoDir, "push", pub.Remote, pub.Branch)
		if err == nil {
			res.Committed = true
			p.Log.Printf("pushed %q (attempt %d/%d): +%d new, %d updated, %d total",
				msg, attempt, pub.MaxAttempts, stats.Added, stats.Updated, stats.Total)
			return res, nil
		}
		if !isPushRejected(err) {
			return res, fmt.Errorf("publish: %w", err)
		}
		p.Log.Printf("push rejected on attempt %d/%d, re-syncing: %v", attempt, pub.MaxAttempts, err)
	}

	return res, fmt.Errorf("%w after %d attempts", ErrAttemptsExhausted, pub.MaxAttempts)
}

// sync discards any local state and puts the worktree at the remote
// tip. A commit left behind by a rejected push is dropped here and
// rebuilt by the next merge.
func (p *Publisher) sync(ctx context.Context) error {
	pub := p.Cfg.Publish
	if _, err := p.Run.Run(ctx, pub.RepoDir, "fetch", pub.Remote, pub.Branch); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if _, err := p.Run.Run(ctx, pub.RepoDir, "checkout", pub.Branch); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	ref := pub.Remote + "/" + pub.Branch
	if _, err := p.Run.Run(ctx, pub.RepoDir, "reset", "--hard", ref); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) worktreeDirty(ctx context.Context, csvPath string) (bool, error) {
	out, err := p.Run.Run(ctx, p.Cfg.Publish.RepoDir, "status", "--porcelain", "--", csvPath)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

func commitMessage(prefix string, stats dataset.MergeStats) string {
	return fmt.Sprintf("%s %d new, %d updated listings (%d total)",
		prefix, stats.Added, stats.Updated, stats.Total)
}

// isPushRejected reports whether the push failed because the remote
// moved under us, which a re-sync and retry can fix. Anything else
// (auth, network, bad ref) is surfaced as-is.
func isPushRejected(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"rejected",
		"non-fast-forward",
		"fetch first",
		"failed to push some refs",
		"cannot lock ref",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
