package main

import "sync"

// MatchQueue is the FIFO of players waiting for an opponent. Strict arrival
// order, no duplicates, no blocking; every method is a single critical
// section.
type MatchQueue struct {
	mu      sync.Mutex
	waiting []int64
}

func NewMatchQueue() *MatchQueue {
	return &MatchQueue{}
}

// Enqueue appends the player unless they are already waiting.
func (q *MatchQueue) Enqueue(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.waiting {
		if id == userID {
			return
		}
	}
	q.waiting = append(q.waiting, userID)
}

// TryPairWith pops and returns the queue head, unless the queue is empty or
// the head is the caller themselves. Self-matching is structurally
// impossible.
func (q *MatchQueue) TryPairWith(userID int64) (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiting) == 0 || q.waiting[0] == userID {
		return 0, false
	}

	opponent := q.waiting[0]
	q.waiting = q.waiting[1:]
	return opponent, true
}

// Cancel removes every occurrence of the player. A no-op if absent.
func (q *MatchQueue) Cancel(userID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.waiting[:0]
	for _, id := range q.waiting {
		if id != userID {
			kept = append(kept, id)
		}
	}
	q.waiting = kept
}

func (q *MatchQueue) Contains(userID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, id := range q.waiting {
		if id == userID {
			return true
		}
	}
	return false
}

func (q *MatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}
