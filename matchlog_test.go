package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func TestMatchEventLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewMatchEventLog(dir)

	winner := int64(1)
	reward := int64(350)
	sess := GameSession{
		MatchID:     "0123456789abcdef0123456789abcdef",
		Player1ID:   1,
		Player2ID:   2,
		Status:      GameFinished,
		WinnerID:    &winner,
		CoinsReward: &reward,
	}
	l.RecordCreated(sess)
	l.RecordFinished(sess)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d journal files want 1", len(entries))
	}

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var events []MatchEvent
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var ev MatchEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events want 2", len(events))
	}
	if events[0].Type != "created" || events[1].Type != "finished" {
		t.Fatalf("event types: %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].WinnerID == nil || *events[1].WinnerID != 1 {
		t.Fatalf("winner lost in journal: %+v", events[1])
	}
	if events[1].CoinsReward == nil || *events[1].CoinsReward != 350 {
		t.Fatalf("reward lost in journal: %+v", events[1])
	}
	if time.Since(events[0].Time) > time.Minute {
		t.Fatalf("stale event timestamp: %v", events[0].Time)
	}
}

func TestMatchEventLogEventsReadableBeforeClose(t *testing.T) {
	dir := t.TempDir()
	l := NewMatchEventLog(dir)
	defer l.Close()

	sess := GameSession{MatchID: "0123456789abcdef0123456789abcdef", Player1ID: 1, Player2ID: 2}
	l.RecordCreated(sess)
	l.RecordSwept(sess)

	// Read the journal while the encoder is still open, as a crash would
	// leave it. Every recorded event must already be on disk.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d journal files want 1", len(entries))
	}
	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var events []MatchEvent
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var ev MatchEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		events = append(events, ev)
	}
	// The frame has no end marker yet, so the scanner may stop on a
	// truncation error once the flushed blocks run out; sc.Err is not
	// checked here.
	if len(events) != 2 {
		t.Fatalf("got %d events before close want 2", len(events))
	}
	if events[0].Type != "created" || events[1].Type != "swept" {
		t.Fatalf("event types: %s, %s", events[0].Type, events[1].Type)
	}
}

func TestMatchEventLogNilDiscards(t *testing.T) {
	var l *MatchEventLog
	l.RecordCreated(GameSession{MatchID: "m1"})
	l.RecordSwept(GameSession{MatchID: "m1"})
	if err := l.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
