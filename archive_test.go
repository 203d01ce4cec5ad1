package main

import (
	"path/filepath"
	"testing"
	"time"
)

func finishedSession(matchID string, ended time.Time) GameSession {
	winner := int64(1)
	reward := int64(350)
	finished := ended
	return GameSession{
		MatchID:      matchID,
		Player1ID:    1,
		Player2ID:    2,
		Player1Score: 30,
		Player2Score: 12,
		StartTime:    ended.Add(-time.Minute),
		EndTime:      ended.Add(30 * time.Second),
		Status:       GameFinished,
		FinishedAt:   &finished,
		WinnerID:     &winner,
		CoinsReward:  &reward,
	}
}

func TestMatchArchiveRecordAndRecent(t *testing.T) {
	archive, err := OpenMatchArchive(filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer archive.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		sess := finishedSession(id, base.Add(time.Duration(i)*time.Minute))
		if err := archive.RecordFinished(sess); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	matches, err := archive.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches want 2", len(matches))
	}
	if matches[0].MatchID != "m3" || matches[1].MatchID != "m2" {
		t.Fatalf("wrong order: %s, %s", matches[0].MatchID, matches[1].MatchID)
	}
	m := matches[0]
	if m.WinnerID == nil || *m.WinnerID != 1 || m.CoinsReward == nil || *m.CoinsReward != 350 {
		t.Fatalf("winner/reward lost: %+v", m)
	}
	if !m.EndedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("endedAt=%v", m.EndedAt)
	}
}

func TestMatchArchiveUpsertOnDuplicate(t *testing.T) {
	archive, err := OpenMatchArchive(filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer archive.Close()

	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := finishedSession("m1", ended)
	if err := archive.RecordFinished(sess); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Duplicate finish replays the same record.
	if err := archive.RecordFinished(sess); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	matches, err := archive.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("duplicate produced %d rows", len(matches))
	}
}

func TestMatchArchiveNoSettlementRecord(t *testing.T) {
	archive, err := OpenMatchArchive(filepath.Join(t.TempDir(), "matches.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer archive.Close()

	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := finishedSession("m1", ended)
	sess.CoinsReward = nil
	if err := archive.RecordFinished(sess); err != nil {
		t.Fatalf("record: %v", err)
	}

	matches, err := archive.Recent(1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if matches[0].CoinsReward != nil {
		t.Fatalf("gated settlement stored a reward: %v", *matches[0].CoinsReward)
	}
}

func TestOpenMatchArchiveEmptyPath(t *testing.T) {
	if _, err := OpenMatchArchive(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
