package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type quizRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *quizRepo) RecordAttempt(ctx context.Context, a *QuizAttempt) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query, args := builder().Insert("quiz_attempts").
		Columns("sequence", "course_id", "quiz_id", "answers", "score",
			"correct_answers", "total_questions", "time_taken", "created_at").
		Values(seqNum, a.CourseID, a.QuizID, string(answers), a.Score,
			a.CorrectAnswers, a.TotalQuestions, a.TimeTaken, a.CreatedAt.UnixMilli()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save quiz attempt: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		a.ID = int(id)
	}
	a.Sequence = seqNum
	return nil
}

func (r *quizRepo) Attempts(ctx context.Context, opts QueryOpts) ([]QuizAttempt, error) {
	sel := builder().Select("id", "sequence", "course_id", "quiz_id", "answers", "score",
		"correct_answers", "total_questions", "time_taken", "created_at").
		From(builder().Table("quiz_attempts"))
	applyOpts(sel, opts, "course_id")
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quiz attempts: %w", err)
	}
	defer rows.Close()

	var out []QuizAttempt
	for rows.Next() {
		var a QuizAttempt
		var answers string
		var ts int64
		if err := rows.Scan(&a.ID, &a.Sequence, &a.CourseID, &a.QuizID, &answers, &a.Score,
			&a.CorrectAnswers, &a.TotalQuestions, &a.TimeTaken, &ts); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		a.CreatedAt = time.UnixMilli(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}

// applyOpts adds the common QueryOpts predicates and newest-first ordering.
// filterColumn is the column QueryOpts.Filter matches.
func applyOpts(sel *entsql.Selector, opts QueryOpts, filterColumn string) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", opts.From.UnixMilli()))
	}
	if opts.Filter != "" && filterColumn != "" {
		preds = append(preds, entsql.EQ(filterColumn, opts.Filter))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
