package store

import (
	"context"
	"time"
)

type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Added      int
	Updated    int
	Total      int
	Committed  bool
	Attempts   int
	Err        string
	Sources    []SourceRecord
}

type SourceRecord struct {
	Source  string
	Fetched int
	Err     string
}

// RecordRun writes one run plus its per-source rows in a single
// transaction and returns the new run id.
func (d *DB) RecordRun(ctx context.Context, rec RunRecord) (int64, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	committed := 0
	if rec.Committed {
		committed = 1
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO runs(started_at, finished_at, added, updated, total, committed, attempts, err)
VALUES(?,?,?,?,?,?,?,?);`,
		rec.StartedAt.UTC().Format(time.RFC3339),
		rec.FinishedAt.UTC().Format(time.RFC3339),
		rec.Added, rec.Updated, rec.Total,
		committed, rec.Attempts, rec.Err,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, s := range rec.Sources {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO run_sources(run_id, source, fetched, err)
VALUES(?,?,?,?);`,
			id, s.Source, s.Fetched, s.Err,
		); err != nil {
			return 0, err
		}
	}

	return id, tx.Commit()
}

// RecentRuns returns up to limit runs, newest first, with their
// per-source rows attached.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, added, updated, total, committed, attempts, err
FROM runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started, finished string
		var committed int
		if err := rows.Scan(
			&rec.ID, &started, &finished,
			&rec.Added, &rec.Updated, &rec.Total,
			&committed, &rec.Attempts, &rec.Err,
		); err != nil {
			return nil, err
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, started)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		rec.Committed = committed != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		srcs, err := d.runSources(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Sources = srcs
	}
	return out, nil
}

func (d *DB) runSources(ctx context.Context, runID int64) ([]SourceRecord, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT source, fetched, err
FROM run_sources
WHERE run_id = ?
ORDER BY source;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SourceRecord
	for rows.Next() {
		var s SourceRecord
		if err := rows.Scan(&s.Source, &s.Fetched, &s.Err); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
