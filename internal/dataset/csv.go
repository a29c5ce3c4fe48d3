package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"internscan/internal/domain"
)

// Keep header order EXACT; downstream consumers key on it.
var Header = []string{
	"source",
	"source_id",
	"company",
	"role",
	"location",
	"status",
	"application",
	"posted",
	"first_seen",
}

// ReadFile loads the published dataset. A missing file is an empty
// dataset, not an error (first run ever, or a fresh clone).
func ReadFile(path string) ([]domain.Listing, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) ([]domain.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset read: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	// a headerless file would silently eat its first row as "header"
	if !slices.Equal(rows[0], Header) {
		return nil, fmt.Errorf("dataset read: unexpected header %v (want %v)", rows[0], Header)
	}

	out := make([]domain.Listing, 0, len(rows)-1)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		l := domain.Listing{
			Source:   row[0],
			SourceID: row[1],
			Company:  row[2],
			Role:     row[3],
			Location: row[4],
			Status:   row[5],
			ApplyURL: row[6],
			Posted:   row[7],
		}
		if row[8] != "" {
			t, err := time.Parse(time.RFC3339, row[8])
			if err != nil {
				return nil, fmt.Errorf("dataset row %d: bad first_seen %q: %w", i, row[8], err)
			}
			l.FirstSeen = t
		}
		out = append(out, l)
	}
	return out, nil
}

func Write(w io.Writer, listings []domain.Listing) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range listings {
		firstSeen := ""
		if !l.FirstSeen.IsZero() {
			firstSeen = l.FirstSeen.UTC().Format(time.RFC3339)
		}
		row := []string{
			l.Source,
			l.SourceID,
			l.Company,
			l.Role,
			l.Location,
			l.Status,
			l.ApplyURL,
			l.Posted,
			firstSeen,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile persists atomically (tmp + rename) so a crashed run never
// leaves a half-written dataset in the worktree.
func WriteFile(path string, listings []domain.Listing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, listings); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
