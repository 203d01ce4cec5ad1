package main

import (
	"testing"
	"time"
)

func newTestSession(matchID string, start time.Time) *GameSession {
	return &GameSession{
		MatchID:     matchID,
		Player1ID:   1,
		Player2ID:   2,
		Player1Name: "alice",
		Player2Name: "bob",
		StartTime:   start,
		EndTime:     start.Add(time.Minute),
		Status:      GameWaiting,
	}
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Create(newTestSession("m1", start)); err != nil {
		t.Fatalf("create: %v", err)
	}

	sess, ok := s.Get("m1")
	if !ok {
		t.Fatal("session not found")
	}
	if sess.Player1ID != 1 || sess.Player2ID != 2 || sess.Status != GameWaiting {
		t.Fatalf("unexpected snapshot: %+v", sess)
	}

	if _, ok := s.Get("nope"); ok {
		t.Fatal("unknown id returned a session")
	}
}

func TestSessionStoreCreateCollision(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Create(newTestSession("m1", start)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(newTestSession("m1", start)); err == nil {
		t.Fatal("duplicate match id accepted")
	}
}

func TestSessionStoreUpdateScoreOutcomes(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Create(newTestSession("m1", start))

	if got := s.UpdateScore("nope", 1, 10); got != ScoreMatchNotFound {
		t.Fatalf("outcome=%v want ScoreMatchNotFound", got)
	}
	if got := s.UpdateScore("m1", 99, 10); got != ScoreUnknownPlayer {
		t.Fatalf("outcome=%v want ScoreUnknownPlayer", got)
	}
	if got := s.UpdateScore("m1", 1, 10); got != ScoreAccepted {
		t.Fatalf("outcome=%v want ScoreAccepted", got)
	}
	if got := s.UpdateScore("m1", 2, 7); got != ScoreAccepted {
		t.Fatalf("outcome=%v want ScoreAccepted", got)
	}

	sess, _ := s.Get("m1")
	if sess.Player1Score != 10 || sess.Player2Score != 7 {
		t.Fatalf("scores %d/%d want 10/7", sess.Player1Score, sess.Player2Score)
	}

	_, _, _ = s.Finish("m1", start.Add(time.Minute), nil)
	if got := s.UpdateScore("m1", 1, 99); got != ScoreAlreadyFinished {
		t.Fatalf("outcome=%v want ScoreAlreadyFinished", got)
	}
	sess, _ = s.Get("m1")
	if sess.Player1Score != 10 {
		t.Fatalf("finished score mutated to %d", sess.Player1Score)
	}
}

func TestSessionStoreFinishExactlyOnce(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Create(newTestSession("m1", start))
	_ = s.UpdateScore("m1", 1, 5)

	end := start.Add(30 * time.Second)
	decided := 0
	snap, first, ok := s.Finish("m1", end, func(sess *GameSession) {
		decided++
		sess.WinnerID = &sess.Player1ID
	})
	if !ok || !first {
		t.Fatalf("first finish ok=%v first=%v", ok, first)
	}
	if snap.Status != GameFinished || snap.FinishedAt == nil || !snap.FinishedAt.Equal(end) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if !snap.EndTime.Equal(start.Add(time.Minute)) {
		t.Fatalf("finish moved the play deadline to %v", snap.EndTime)
	}
	if snap.WinnerID == nil || *snap.WinnerID != 1 {
		t.Fatal("decide result not in snapshot")
	}

	snap2, first2, ok2 := s.Finish("m1", end.Add(time.Minute), nil)
	if !ok2 || first2 {
		t.Fatalf("second finish ok=%v first=%v", ok2, first2)
	}
	if decided != 1 {
		t.Fatalf("decide ran %d times", decided)
	}
	if snap2.FinishedAt == nil || !snap2.FinishedAt.Equal(end) {
		t.Fatal("second finish moved the finish time")
	}

	if _, _, ok := s.Finish("nope", end, nil); ok {
		t.Fatal("finished an unknown match")
	}
}

func TestSessionStoreSweepExpiredWaiting(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Create(newTestSession("expired", start))
	_ = s.Create(newTestSession("live", start.Add(time.Hour)))

	removed := s.Sweep(start.Add(2*time.Minute), 0)
	if len(removed) != 1 || removed[0].MatchID != "expired" {
		t.Fatalf("removed=%v want [expired]", removed)
	}
	if _, ok := s.Get("live"); !ok {
		t.Fatal("live session swept")
	}
}

func TestSessionStoreSweepRetention(t *testing.T) {
	s := NewSessionStore()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Create(newTestSession("m1", start))
	end := start.Add(time.Minute)
	_, _, _ = s.Finish("m1", end, nil)

	// Finished sessions survive past their deadline while within retention.
	if removed := s.Sweep(end.Add(5*time.Minute), 10*time.Minute); len(removed) != 0 {
		t.Fatalf("swept finished session inside retention: %v", removed)
	}
	// Zero retention keeps finished records indefinitely.
	if removed := s.Sweep(end.Add(24*time.Hour), 0); len(removed) != 0 {
		t.Fatalf("swept finished session with retention disabled: %v", removed)
	}
	if removed := s.Sweep(end.Add(11*time.Minute), 10*time.Minute); len(removed) != 1 {
		t.Fatalf("retention sweep removed %d sessions", len(removed))
	}
	if s.Len() != 0 {
		t.Fatalf("store len=%d want 0", s.Len())
	}
}
