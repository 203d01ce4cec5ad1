package main

import (
	"fmt"
	"sync"
	"time"
)

type GameStatus string

const (
	GameWaiting  GameStatus = "WAITING"
	GameFinished GameStatus = "FINISHED"
)

// GameSession is owned exclusively by the SessionStore from pairing until it
// is swept. Player slots are ordered: score updates address them by user id.
type GameSession struct {
	MatchID      string     `json:"matchId"`
	Player1ID    int64      `json:"player1Id"`
	Player2ID    int64      `json:"player2Id"`
	Player1Name  string     `json:"player1Name"`
	Player2Name  string     `json:"player2Name"`
	Player1Score int        `json:"player1Score"`
	Player2Score int        `json:"player2Score"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	Status       GameStatus `json:"status"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
	WinnerID     *int64     `json:"winnerId,omitempty"`
	CoinsReward  *int64     `json:"coinsReward,omitempty"`
}

// ScoreOutcome tells the caller whether a score write actually landed.
// Writes against unknown or finished matches are no-ops, but the no-op is
// reported so the handler can answer honestly.
type ScoreOutcome int

const (
	ScoreAccepted ScoreOutcome = iota
	ScoreMatchNotFound
	ScoreAlreadyFinished
	ScoreUnknownPlayer
)

// SessionStore is the concurrency-safe map of live sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*GameSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*GameSession)}
}

// Create inserts a fresh session. A match id collision means the id scheme
// is broken; the store refuses rather than overwrite a live match.
func (s *SessionStore) Create(sess *GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.MatchID]; exists {
		return fmt.Errorf("session store: duplicate match id %q", sess.MatchID)
	}
	s.sessions[sess.MatchID] = sess
	return nil
}

// Get returns a snapshot copy; unknown ids are not an error.
func (s *SessionStore) Get(matchID string) (GameSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[matchID]
	if !ok {
		return GameSession{}, false
	}
	return *sess, true
}

// UpdateScore overwrites the score slot belonging to userID. Any integer
// from a recognized slot is accepted; plausibility is not this layer's job.
func (s *SessionStore) UpdateScore(matchID string, userID int64, score int) ScoreOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[matchID]
	if !ok {
		return ScoreMatchNotFound
	}
	if sess.Status == GameFinished {
		return ScoreAlreadyFinished
	}

	switch userID {
	case sess.Player1ID:
		sess.Player1Score = score
	case sess.Player2ID:
		sess.Player2Score = score
	default:
		return ScoreUnknownPlayer
	}
	return ScoreAccepted
}

// Finish performs the terminal transition exactly once. On the first call
// decide runs under the store lock to pick the winner, the finish instant
// is recorded in FinishedAt (EndTime keeps the play deadline set at
// creation), and first=true is returned; later calls return the finished
// snapshot with first=false. Reward settlement keys off first, which keeps
// it exactly-once under concurrent duplicate finishes.
func (s *SessionStore) Finish(matchID string, now time.Time, decide func(*GameSession)) (snap GameSession, first bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[matchID]
	if !exists {
		return GameSession{}, false, false
	}
	if sess.Status == GameFinished {
		return *sess, false, true
	}

	sess.Status = GameFinished
	finished := now
	sess.FinishedAt = &finished
	if decide != nil {
		decide(sess)
	}
	return *sess, true, true
}

// SetReward records the settled reward on an already-finished session.
func (s *SessionStore) SetReward(matchID string, coins int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[matchID]; ok {
		sess.CoinsReward = &coins
	}
}

// Sweep drops non-finished sessions whose deadline passed (abandoned matches
// forfeit rewards) and garbage-collects finished sessions older
// than finishedAt+retention. retention <= 0 keeps finished records forever.
// Returns the removed sessions for logging.
func (s *SessionStore) Sweep(now time.Time, retention time.Duration) []GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []GameSession
	for id, sess := range s.sessions {
		switch {
		case sess.Status != GameFinished && sess.EndTime.Before(now):
			removed = append(removed, *sess)
			delete(s.sessions, id)
		case sess.Status == GameFinished && retention > 0 &&
			sess.FinishedAt != nil && now.After(sess.FinishedAt.Add(retention)):
			removed = append(removed, *sess)
			delete(s.sessions, id)
		}
	}
	return removed
}

// ActiveGames snapshots every session, finished or not. Diagnostic only.
func (s *SessionStore) ActiveGames() map[string]GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]GameSession, len(s.sessions))
	for id, sess := range s.sessions {
		out[id] = *sess
	}
	return out
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
