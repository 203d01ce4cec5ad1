package main

import (
	"testing"
	"time"
)

var accrualBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRegenerateEnergyCreditsElapsedIntervals(t *testing.T) {
	now := accrualBase.Add(6 * time.Second)
	energy, last := RegenerateEnergy(10, 500, accrualBase, now, 1500*time.Millisecond)
	if energy != 14 {
		t.Fatalf("energy=%d want 14", energy)
	}
	if !last.Equal(now) {
		t.Fatalf("lastUpdate=%v want %v", last, now)
	}
}

func TestRegenerateEnergyCapsAtMax(t *testing.T) {
	now := accrualBase.Add(24 * time.Hour)
	energy, _ := RegenerateEnergy(0, 500, accrualBase, now, 1500*time.Millisecond)
	if energy != 500 {
		t.Fatalf("energy=%d want 500", energy)
	}
}

func TestRegenerateEnergyZeroBaselineGrantsNothing(t *testing.T) {
	energy, last := RegenerateEnergy(42, 500, time.Time{}, accrualBase, 1500*time.Millisecond)
	if energy != 42 {
		t.Fatalf("energy=%d want 42", energy)
	}
	if !last.Equal(accrualBase) {
		t.Fatalf("baseline should be now, got %v", last)
	}
}

func TestRegenerateEnergySubIntervalPollKeepsTimestamp(t *testing.T) {
	now := accrualBase.Add(time.Second)
	energy, last := RegenerateEnergy(10, 500, accrualBase, now, 1500*time.Millisecond)
	if energy != 10 {
		t.Fatalf("energy=%d want 10", energy)
	}
	if !last.Equal(accrualBase) {
		t.Fatalf("timestamp advanced with no credit: %v", last)
	}
}

// Polling twice below the interval then crossing it must credit the same
// energy as a single poll after the full span.
func TestRegenerateEnergySplitPollingLosesNothing(t *testing.T) {
	interval := 1500 * time.Millisecond

	energy, last := RegenerateEnergy(0, 500, accrualBase, accrualBase.Add(time.Second), interval)
	energy, last = RegenerateEnergy(energy, 500, last, accrualBase.Add(2*time.Second), interval)
	energy, _ = RegenerateEnergy(energy, 500, last, accrualBase.Add(6*time.Second), interval)

	single, _ := RegenerateEnergy(0, 500, accrualBase, accrualBase.Add(6*time.Second), interval)
	if energy != single {
		t.Fatalf("split polling credited %d, single poll credited %d", energy, single)
	}
}

func TestRegenerateEnergyClockBackwards(t *testing.T) {
	now := accrualBase.Add(-time.Minute)
	energy, last := RegenerateEnergy(10, 500, accrualBase, now, 1500*time.Millisecond)
	if energy != 10 {
		t.Fatalf("energy=%d want 10", energy)
	}
	if !last.Equal(accrualBase) {
		t.Fatalf("timestamp moved backwards: %v", last)
	}
}

func TestAccruePassiveIncomeWholeMinutes(t *testing.T) {
	now := accrualBase.Add(3*time.Minute + 30*time.Second)
	coins, last, credited := AccruePassiveIncome(100, 1000, accrualBase, now)
	if credited != 300 {
		t.Fatalf("credited=%d want 300", credited)
	}
	if coins != 1300 {
		t.Fatalf("coins=%d want 1300", coins)
	}
	// The 30s remainder must remain pending.
	want := accrualBase.Add(3 * time.Minute)
	if !last.Equal(want) {
		t.Fatalf("lastCollect=%v want %v", last, want)
	}
}

func TestAccruePassiveIncomeUnderOneMinute(t *testing.T) {
	now := accrualBase.Add(59 * time.Second)
	coins, last, credited := AccruePassiveIncome(100, 1000, accrualBase, now)
	if credited != 0 || coins != 1000 {
		t.Fatalf("credited=%d coins=%d want 0/1000", credited, coins)
	}
	if !last.Equal(accrualBase) {
		t.Fatalf("timestamp advanced under a minute: %v", last)
	}
}

func TestAccruePassiveIncomeZeroBaseline(t *testing.T) {
	coins, last, credited := AccruePassiveIncome(100, 1000, time.Time{}, accrualBase)
	if credited != 0 || coins != 1000 {
		t.Fatalf("credited=%d coins=%d want 0/1000", credited, coins)
	}
	if !last.Equal(accrualBase) {
		t.Fatalf("baseline should be now, got %v", last)
	}
}

func TestAccruePassiveIncomeZeroRateStillAdvances(t *testing.T) {
	now := accrualBase.Add(2 * time.Minute)
	coins, last, credited := AccruePassiveIncome(0, 500, accrualBase, now)
	if credited != 0 || coins != 500 {
		t.Fatalf("credited=%d coins=%d want 0/500", credited, coins)
	}
	if !last.Equal(now) {
		t.Fatalf("zero-rate collection kept stale timestamp: %v", last)
	}
}

func TestAccruePassiveIncomeRemainderEventuallyCredits(t *testing.T) {
	coins, last, _ := AccruePassiveIncome(100, 0, accrualBase, accrualBase.Add(90*time.Second))
	coins, _, credited := AccruePassiveIncome(100, coins, last, accrualBase.Add(2*time.Minute))
	if credited != 100 {
		t.Fatalf("remainder credit=%d want 100", credited)
	}
	if coins != 200 {
		t.Fatalf("coins=%d want 200", coins)
	}
}
