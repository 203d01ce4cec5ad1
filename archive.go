package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MatchArchive keeps a durable local index of finished matches in SQLite.
// Live sessions stay purely in memory; the archive only ever sees terminal
// records, so losing it costs history, not correctness.
type MatchArchive struct {
	db *sql.DB
}

type ArchivedMatch struct {
	MatchID      string    `json:"matchId"`
	Player1ID    int64     `json:"player1Id"`
	Player2ID    int64     `json:"player2Id"`
	Player1Score int       `json:"player1Score"`
	Player2Score int       `json:"player2Score"`
	WinnerID     *int64    `json:"winnerId,omitempty"`
	CoinsReward  *int64    `json:"coinsReward,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
	EndedAt      time.Time `json:"endedAt"`
}

func OpenMatchArchive(path string) (*MatchArchive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS finished_matches (
			match_id TEXT PRIMARY KEY,
			player1_id INTEGER NOT NULL,
			player2_id INTEGER NOT NULL,
			player1_score INTEGER NOT NULL,
			player2_score INTEGER NOT NULL,
			winner_id INTEGER,
			coins_reward INTEGER,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_finished_matches_ended_at
		ON finished_matches (ended_at);
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MatchArchive{db: db}, nil
}

func (a *MatchArchive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}

// RecordFinished upserts one terminal session. Re-recording the same match
// (duplicate finish calls) is harmless.
func (a *MatchArchive) RecordFinished(sess GameSession) error {
	var winner, reward interface{}
	if sess.WinnerID != nil {
		winner = *sess.WinnerID
	}
	if sess.CoinsReward != nil {
		reward = *sess.CoinsReward
	}

	_, err := a.db.Exec(`
		INSERT INTO finished_matches (
			match_id, player1_id, player2_id,
			player1_score, player2_score,
			winner_id, coins_reward,
			started_at, ended_at, recorded_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			winner_id = excluded.winner_id,
			coins_reward = excluded.coins_reward,
			ended_at = excluded.ended_at,
			recorded_at = excluded.recorded_at
	`,
		sess.MatchID, sess.Player1ID, sess.Player2ID,
		sess.Player1Score, sess.Player2Score,
		winner, reward,
		sess.StartTime.UTC().Format(time.RFC3339Nano),
		sessionEndedAt(sess).UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// sessionEndedAt prefers the recorded finish instant; sessions archived
// without one fall back to their play deadline.
func sessionEndedAt(sess GameSession) time.Time {
	if sess.FinishedAt != nil {
		return *sess.FinishedAt
	}
	return sess.EndTime
}

// Recent returns the newest finished matches, most recent first.
func (a *MatchArchive) Recent(limit int) ([]ArchivedMatch, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Query(`
		SELECT match_id, player1_id, player2_id,
			player1_score, player2_score,
			winner_id, coins_reward,
			started_at, ended_at
		FROM finished_matches
		ORDER BY ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedMatch
	for rows.Next() {
		var m ArchivedMatch
		var winner, reward sql.NullInt64
		var started, ended string
		if err := rows.Scan(
			&m.MatchID, &m.Player1ID, &m.Player2ID,
			&m.Player1Score, &m.Player2Score,
			&winner, &reward, &started, &ended,
		); err != nil {
			return nil, err
		}
		if winner.Valid {
			v := winner.Int64
			m.WinnerID = &v
		}
		if reward.Valid {
			v := reward.Int64
			m.CoinsReward = &v
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			m.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, ended); err == nil {
			m.EndedAt = t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
