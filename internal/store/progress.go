package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type progressRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *progressRepo) RecordProgress(ctx context.Context, contentID string, percent float64) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := builder().Insert("progress_events").
		Columns("sequence", "content_id", "percent", "created_at").
		Values(seqNum, contentID, percent, time.Now().UnixMilli()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save progress event: %w", err)
	}
	return nil
}

func (r *progressRepo) MarkComplete(ctx context.Context, contentID string) (bool, error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return false, err
	}
	query, args := builder().Insert("completions").
		Columns("content_id", "sequence", "created_at").
		Values(contentID, seqNum, time.Now().UnixMilli()).
		OnConflict(entsql.ConflictColumns("content_id"), entsql.DoNothing()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("save completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save completion: %w", err)
	}
	return n > 0, nil
}

func (r *progressRepo) Completed(ctx context.Context) (map[string]bool, error) {
	query, args := builder().Select("content_id").From(builder().Table("completions")).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}

func (r *progressRepo) Summaries(ctx context.Context) ([]ProgressSummary, error) {
	query, args := builder().Select("content_id", "percent", "created_at").
		From(builder().Table("progress_events")).
		OrderBy(entsql.Desc("sequence")).
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	// Rows arrive newest first; the first row per item is its latest report.
	seen := make(map[string]bool)
	var out []ProgressSummary
	for rows.Next() {
		var s ProgressSummary
		var ts int64
		if err := rows.Scan(&s.ContentID, &s.Percent, &ts); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		if seen[s.ContentID] {
			continue
		}
		seen[s.ContentID] = true
		s.UpdatedAt = time.UnixMilli(ts)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	done, err := r.Completed(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Completed = done[out[i].ContentID]
	}
	return out, nil
}
