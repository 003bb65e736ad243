package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	for _, table := range []string{"progress_events", "completions", "quiz_attempts", "chat_messages", "llm_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	first, err := repo.MarkComplete(ctx, "v1")
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	second, err := repo.MarkComplete(ctx, "v1")
	if err != nil {
		t.Fatalf("mark complete again: %v", err)
	}
	if !first || second {
		t.Errorf("MarkComplete = %v then %v, want true then false", first, second)
	}

	done, err := repo.Completed(ctx)
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(done) != 1 || !done["v1"] {
		t.Errorf("completed = %v", done)
	}
}

func TestProgressSummariesLatestPerItem(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProgressRepo()
	ctx := context.Background()

	for _, r := range []struct {
		id  string
		pct float64
	}{{"v1", 10}, {"v2", 5}, {"v1", 55}, {"v1", 100}} {
		if err := repo.RecordProgress(ctx, r.id, r.pct); err != nil {
			t.Fatalf("record progress: %v", err)
		}
	}
	if _, err := repo.MarkComplete(ctx, "v1"); err != nil {
		t.Fatalf("mark complete: %v", err)
	}

	sums, err := repo.Summaries(ctx)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want 2", len(sums))
	}
	if sums[0].ContentID != "v1" || sums[0].Percent != 100 || !sums[0].Completed {
		t.Errorf("sums[0] = %+v", sums[0])
	}
	if sums[1].ContentID != "v2" || sums[1].Percent != 5 || sums[1].Completed {
		t.Errorf("sums[1] = %+v", sums[1])
	}
}

func TestQuizAttempts(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	for i, course := range []string{"c1", "c2", "c1"} {
		err := repo.RecordAttempt(ctx, &QuizAttempt{
			CourseID:       course,
			QuizID:         "q1",
			Answers:        []int{i, -1},
			Score:          50,
			CorrectAnswers: 1,
			TotalQuestions: 2,
			TimeTaken:      12.5,
		})
		if err != nil {
			t.Fatalf("record attempt %d: %v", i, err)
		}
	}

	got, err := repo.Attempts(ctx, QueryOpts{Filter: "c1"})
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got))
	}
	if got[0].Answers[0] != 2 || got[0].Answers[1] != -1 {
		t.Errorf("newest attempt answers = %v, want [2 -1]", got[0].Answers)
	}
	if got[0].Sequence <= got[1].Sequence {
		t.Errorf("attempts not ordered newest first: %d, %d", got[0].Sequence, got[1].Sequence)
	}

	limited, err := repo.Attempts(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("attempts with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].CourseID != "c1" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestChatTurns(t *testing.T) {
	s := openTestStore(t)
	repo := s.ChatRepo()
	ctx := context.Background()

	turn := &ChatTurn{
		UserID:   "u1",
		CourseID: "c1",
		Message:  "what is a channel?",
		Reply:    "A typed conduit.",
		Sources:  []string{"Lesson 3"},
		Success:  true,
	}
	if err := repo.AppendTurn(ctx, turn); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendTurn(ctx, &ChatTurn{Message: "hi", Reply: "fallback"}); err != nil {
		t.Fatalf("append failed turn: %v", err)
	}

	turns, err := repo.Turns(ctx, QueryOpts{Filter: "c1"})
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	got := turns[0]
	if got.Reply != "A typed conduit." || !got.Success || len(got.Sources) != 1 {
		t.Errorf("turn = %+v", got)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku", Purpose: "chat", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true},
		{Provider: "anthropic", Model: "claude-haiku", Purpose: "chat", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "other", Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	chat, err := repo.QueryLLMEvents(ctx, QueryOpts{Filter: "chat"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(chat) != 2 {
		t.Fatalf("got %d chat events, want 2", len(chat))
	}

	got, err := repo.GetLLMEvent(ctx, chat[0].ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.InputTokens != 50 {
		t.Errorf("newest chat event input tokens = %d, want 50", got.InputTokens)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("get missing = %v, %v; want nil, nil", missing, err)
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 || byPurpose[0].Purpose != "chat" || byPurpose[0].Calls != 2 ||
		byPurpose[0].InputTokens != 150 || byPurpose[0].AvgLatencyMs != 200 {
		t.Errorf("usage by purpose = %+v", byPurpose)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[1].Model != "gpt-4o-mini" {
		t.Errorf("usage by model = %+v", byModel)
	}
}

func TestQueryOptsFrom(t *testing.T) {
	s := openTestStore(t)
	repo := s.ChatRepo()
	ctx := context.Background()

	old := &ChatTurn{Message: "old", Reply: "r", CreatedAt: time.Now().Add(-48 * time.Hour)}
	if err := repo.AppendTurn(ctx, old); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := repo.AppendTurn(ctx, &ChatTurn{Message: "new", Reply: "r"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns, err := repo.Turns(ctx, QueryOpts{From: time.Now().Add(-time.Hour)})
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 1 || turns[0].Message != "new" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq <= prev {
			t.Errorf("seq[%d] = %d, not greater than %d", i, seq, prev)
		}
		prev = seq
	}
}
