package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type chatRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *chatRepo) AppendTurn(ctx context.Context, t *ChatTurn) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	sources := t.Sources
	if sources == nil {
		sources = []string{}
	}
	srcJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query, args := builder().Insert("chat_messages").
		Columns("sequence", "user_id", "course_id", "content_id", "message", "reply",
			"sources", "success", "created_at").
		Values(seqNum, t.UserID, t.CourseID, t.ContentID, t.Message, t.Reply,
			string(srcJSON), t.Success, t.CreatedAt.UnixMilli()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save chat turn: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		t.ID = int(id)
	}
	t.Sequence = seqNum
	return nil
}

func (r *chatRepo) Turns(ctx context.Context, opts QueryOpts) ([]ChatTurn, error) {
	sel := builder().Select("id", "sequence", "user_id", "course_id", "content_id",
		"message", "reply", "sources", "success", "created_at").
		From(builder().Table("chat_messages"))
	applyOpts(sel, opts, "course_id")
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat turns: %w", err)
	}
	defer rows.Close()

	var out []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var sources string
		var ts int64
		if err := rows.Scan(&t.ID, &t.Sequence, &t.UserID, &t.CourseID, &t.ContentID,
			&t.Message, &t.Reply, &sources, &t.Success, &ts); err != nil {
			return nil, fmt.Errorf("scan chat turn: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &t.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
		t.CreatedAt = time.UnixMilli(ts)
		out = append(out, t)
	}
	return out, rows.Err()
}
