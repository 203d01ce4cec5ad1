package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	mrand "math/rand"
	"sync"
	"time"
)

const (
	MatchSearching = "SEARCHING"
	MatchFound     = "FOUND"
)

type MatchmakingResponse struct {
	MatchID          string `json:"matchId,omitempty"`
	Status           string `json:"status"`
	OpponentID       *int64 `json:"opponentId,omitempty"`
	OpponentName     string `json:"opponentName,omitempty"`
	CountdownSeconds int    `json:"countdownSeconds"`
}

// Matchmaker pairs players strictly first-come-first-served, runs the
// session lifecycle and settles rewards through the ledger. One instance
// per process, injected into the handlers.
type Matchmaker struct {
	cfg     MultiplayerConfig
	queue   *MatchQueue
	store   *SessionStore
	ledger  UserLedger
	events  *MatchEventLog
	archive *MatchArchive

	now func() time.Time

	rngMu sync.Mutex
	rng   *mrand.Rand

	// pairMu makes dequeue-opponent + create-session atomic with respect
	// to concurrent FindOpponent calls, so one waiting player can never
	// end up in two sessions.
	pairMu sync.Mutex
}

// NewMatchmaker wires the engine. events and archive may be nil.
func NewMatchmaker(ledger UserLedger, cfg MultiplayerConfig, events *MatchEventLog, archive *MatchArchive) *Matchmaker {
	return &Matchmaker{
		cfg:     cfg,
		queue:   NewMatchQueue(),
		store:   NewSessionStore(),
		ledger:  ledger,
		events:  events,
		archive: archive,
		now:     func() time.Time { return time.Now().UTC() },
		rng:     mrand.New(mrand.NewSource(time.Now().UnixNano())),
	}
}

// SeedTieBreak makes the tie coin flip deterministic. Test hook.
func (m *Matchmaker) SeedTieBreak(seed int64) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	m.rng = mrand.New(mrand.NewSource(seed))
}

// FindOpponent either pairs the caller with the queue head or parks them in
// the queue. Polling while queued is idempotent. Nobody blocks; the client
// polls during the countdown.
func (m *Matchmaker) FindOpponent(userID int64) (MatchmakingResponse, error) {
	m.pairMu.Lock()
	defer m.pairMu.Unlock()

	if m.queue.Contains(userID) {
		return m.searchingResponse(), nil
	}

	opponentID, ok := m.queue.TryPairWith(userID)
	if !ok {
		m.queue.Enqueue(userID)
		return m.searchingResponse(), nil
	}

	resp, err := m.createMatch(userID, opponentID)
	if err != nil {
		// Do not strand the dequeued player; they go back to waiting.
		m.queue.Enqueue(opponentID)
		return MatchmakingResponse{}, err
	}
	return resp, nil
}

func (m *Matchmaker) searchingResponse() MatchmakingResponse {
	return MatchmakingResponse{
		Status:           MatchSearching,
		CountdownSeconds: m.cfg.SearchTimeoutSeconds,
	}
}

func (m *Matchmaker) createMatch(userID, opponentID int64) (MatchmakingResponse, error) {
	caller, err := m.ledger.UserBrief(userID)
	if err != nil {
		return MatchmakingResponse{}, err
	}
	opponent, err := m.ledger.UserBrief(opponentID)
	if err != nil {
		return MatchmakingResponse{}, err
	}

	now := m.now()
	start := now.Add(m.cfg.Countdown())
	sess := &GameSession{
		MatchID:     newMatchID(),
		Player1ID:   caller.ID,
		Player2ID:   opponent.ID,
		Player1Name: caller.Username,
		Player2Name: opponent.Username,
		StartTime:   start,
		EndTime:     start.Add(m.cfg.PlayDuration()),
		Status:      GameWaiting,
	}

	if err := m.store.Create(sess); err != nil {
		return MatchmakingResponse{}, err
	}

	m.events.RecordCreated(*sess)
	log.Printf("match created: %s (%d vs %d)", sess.MatchID, caller.ID, opponent.ID)

	oppID := opponent.ID
	return MatchmakingResponse{
		MatchID:          sess.MatchID,
		Status:           MatchFound,
		OpponentID:       &oppID,
		OpponentName:     opponent.Username,
		CountdownSeconds: m.cfg.CountdownSeconds,
	}, nil
}

// MatchStatus returns a snapshot of the session, finished or not.
func (m *Matchmaker) MatchStatus(matchID string) (GameSession, bool) {
	return m.store.Get(matchID)
}

// UpdateScore overwrites the caller's score slot. Plausibility is not
// checked; reported scores are trusted as-is.
func (m *Matchmaker) UpdateScore(matchID string, userID int64, score int) ScoreOutcome {
	return m.store.UpdateScore(matchID, userID, score)
}

// FinishGame drives the terminal transition. The first call decides the
// winner (tie resolved by a fair coin flip) and settles rewards; repeated
// calls return the finished session unchanged.
func (m *Matchmaker) FinishGame(matchID string) (GameSession, bool) {
	now := m.now()
	// Drawn up front to keep the rng out of the store's critical section.
	tieGoesToPlayer1 := m.coinFlip()

	snap, first, ok := m.store.Finish(matchID, now, func(s *GameSession) {
		var winner int64
		switch {
		case s.Player1Score > s.Player2Score:
			winner = s.Player1ID
		case s.Player2Score > s.Player1Score:
			winner = s.Player2ID
		case tieGoesToPlayer1:
			winner = s.Player1ID
		default:
			winner = s.Player2ID
		}
		s.WinnerID = &winner
	})
	if !ok {
		return GameSession{}, false
	}
	if !first {
		return snap, true
	}

	m.settleRewards(&snap)
	m.events.RecordFinished(snap)
	if m.archive != nil {
		if err := m.archive.RecordFinished(snap); err != nil {
			log.Println("match archive write failed:", err)
		}
	}
	return snap, true
}

// settleRewards transfers coins for a freshly finished session. The whole
// transfer is gated on the loser holding at least the configured minimum:
// if they cannot pay the penalty, nobody is paid and coinsReward stays
// unset. Runs at most once per session (guarded by Finish's first flag).
func (m *Matchmaker) settleRewards(sess *GameSession) {
	winnerID := *sess.WinnerID
	loserID := sess.Player1ID
	if winnerID == sess.Player1ID {
		loserID = sess.Player2ID
	}

	winner, err := m.ledger.UserBrief(winnerID)
	if err != nil {
		log.Printf("settlement skipped for %s: winner: %v", sess.MatchID, err)
		return
	}
	loser, err := m.ledger.UserBrief(loserID)
	if err != nil {
		log.Printf("settlement skipped for %s: loser: %v", sess.MatchID, err)
		return
	}

	if loser.Coins < m.cfg.LoserMinBalance {
		log.Printf("settlement gated for %s: loser %d holds %d < %d",
			sess.MatchID, loser.ID, loser.Coins, m.cfg.LoserMinBalance)
		return
	}

	if _, err := m.ledger.AdjustCoins(winner.ID, m.cfg.WinReward); err != nil {
		log.Printf("settlement failed for %s: credit winner: %v", sess.MatchID, err)
		return
	}
	if _, err := m.ledger.AdjustCoins(loser.ID, m.cfg.LossPenalty); err != nil {
		// The winner is already credited; leave coinsReward unset so the
		// session does not claim a transfer that only half happened.
		log.Printf("settlement incomplete for %s: winner %d credited %d, debit loser %d failed: %v",
			sess.MatchID, winner.ID, m.cfg.WinReward, loser.ID, err)
		return
	}

	m.store.SetReward(sess.MatchID, m.cfg.WinReward)
	reward := m.cfg.WinReward
	sess.CoinsReward = &reward
}

// CancelSearch removes the player from the waiting queue. A session they
// were already paired into is unaffected.
func (m *Matchmaker) CancelSearch(userID int64) {
	m.queue.Cancel(userID)
}

// ActiveGames is the diagnostic dump of every retained session.
func (m *Matchmaker) ActiveGames() map[string]GameSession {
	return m.store.ActiveGames()
}

// SweepExpired discards unfinished sessions past their deadline and
// finished ones past retention. Returns how many were removed.
func (m *Matchmaker) SweepExpired(now time.Time) int {
	removed := m.store.Sweep(now, m.cfg.Retention())
	for _, sess := range removed {
		m.events.RecordSwept(sess)
	}
	if len(removed) > 0 {
		log.Println("session sweep removed", len(removed), "sessions")
	}
	return len(removed)
}

// StartSweeper runs SweepExpired on the configured cadence.
func (m *Matchmaker) StartSweeper() {
	ticker := time.NewTicker(m.cfg.SweepInterval())

	go func() {
		for t := range ticker.C {
			m.SweepExpired(t.UTC())
		}
	}()
}

func (m *Matchmaker) coinFlip() bool {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(2) == 0
}

func newMatchID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failure means the host is broken
	}
	return hex.EncodeToString(b)
}
