package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// Listing is one job/internship posting pulled from an external source.
// Records are never mutated after fetch; a re-fetch on the next run
// supersedes them during merge.
type Listing struct {
	Source   string // e.g. "github:SimplifyJobs/Summer2026-Internships"
	SourceID string // per-source stable id; may be empty
	Company  string
	Role     string
	Location string
	Status   string
	ApplyURL string
	Posted   string // raw date token from the source ("3d", "Aug 12", ...)

	FirstSeen time.Time // UTC; preserved across reruns for unchanged rows
}

// Key is the dedupe key for merge: source-scoped id when the source
// provides one, otherwise a hash of company|role|location.
func (l Listing) Key() string {
	if id := strings.TrimSpace(l.SourceID); id != "" {
		return l.Source + ":" + id
	}
	blob := strings.ToLower(strings.TrimSpace(l.Company)) + "|" +
		strings.ToLower(strings.TrimSpace(l.Role)) + "|" +
		strings.ToLower(strings.TrimSpace(l.Location))
	sum := sha1.Sum([]byte(blob))
	return "fallback:" + hex.EncodeToString(sum[:8])
}

// SameContent reports whether two listings are identical apart from
// FirstSeen. Merge keeps the existing row in that case so a rerun with
// identical upstream data is a no-op.
func (l Listing) SameContent(o Listing) bool {
	return l.Source == o.Source &&
		l.SourceID == o.SourceID &&
		l.Company == o.Company &&
		l.Role == o.Role &&
		l.Location == o.Location &&
		l.Status == o.Status &&
		l.ApplyURL == o.ApplyURL &&
		l.Posted == o.Posted
}
