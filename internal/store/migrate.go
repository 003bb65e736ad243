package store

import (
	"database/sql"
	"fmt"
)

// Every table carries the global sequence so rows from different tables
// can be ordered against each other. Timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS progress_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		content_id TEXT NOT NULL,
		percent REAL NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_progress_content ON progress_events (content_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS completions (
		content_id TEXT PRIMARY KEY,
		sequence INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		course_id TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		answers TEXT NOT NULL,
		score REAL NOT NULL,
		correct_answers INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		time_taken REAL NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		user_id TEXT NOT NULL DEFAULT '',
		course_id TEXT NOT NULL DEFAULT '',
		content_id TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		reply TEXT NOT NULL,
		sources TEXT NOT NULL DEFAULT '[]',
		success INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
}

func migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
