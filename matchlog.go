package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// MatchEvent is one line of the compressed match journal.
type MatchEvent struct {
	Time        time.Time `json:"time"`
	Type        string    `json:"type"` // created | finished | swept
	MatchID     string    `json:"matchId"`
	Player1ID   int64     `json:"player1Id"`
	Player2ID   int64     `json:"player2Id"`
	WinnerID    *int64    `json:"winnerId,omitempty"`
	CoinsReward *int64    `json:"coinsReward,omitempty"`
}

// MatchEventLog appends match lifecycle events as zstd-compressed JSONL,
// rotated hourly. A nil log discards everything, so callers never need to
// check whether journaling is enabled.
type MatchEventLog struct {
	baseDir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewMatchEventLog(baseDir string) *MatchEventLog {
	return &MatchEventLog{baseDir: baseDir}
}

func (l *MatchEventLog) RecordCreated(sess GameSession) {
	l.record("created", sess)
}

func (l *MatchEventLog) RecordFinished(sess GameSession) {
	l.record("finished", sess)
}

func (l *MatchEventLog) RecordSwept(sess GameSession) {
	l.record("swept", sess)
}

func (l *MatchEventLog) record(eventType string, sess GameSession) {
	if l == nil {
		return
	}
	_ = l.write(MatchEvent{
		Time:        time.Now().UTC(),
		Type:        eventType,
		MatchID:     sess.MatchID,
		Player1ID:   sess.Player1ID,
		Player2ID:   sess.Player2ID,
		WinnerID:    sess.WinnerID,
		CoinsReward: sess.CoinsReward,
	})
}

func (l *MatchEventLog) write(ev MatchEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	hour := ev.Time.Format("2006-01-02-15")
	if hour != l.curHour {
		if err := l.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := l.w.Flush(); err != nil {
		return err
	}
	// bufio only hands the line to the compressor; flush the encoder too so
	// the event reaches the file before the write returns.
	return l.enc.Flush()
}

func (l *MatchEventLog) rotateLocked(hour string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.baseDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.baseDir, fmt.Sprintf("matches-%s.jsonl.zst", hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.w = bufio.NewWriterSize(enc, 64*1024)
	l.curHour = hour
	return nil
}

func (l *MatchEventLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *MatchEventLog) closeLocked() error {
	var err error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		err = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	l.curHour = ""
	return err
}
