package main

import "time"

// Lazy accrual: a player's regenerating energy and pending card income are
// derived from a stored timestamp plus elapsed wall clock, recomputed on
// every read or mutation instead of by a scheduler.

const (
	defaultEnergyRegenInterval = 1500 * time.Millisecond
	passiveIncomeGranularity   = time.Minute
)

// RegenerateEnergy returns the energy after crediting one point per elapsed
// regen interval, capped at maxEnergy, together with the timestamp to store
// back. A zero lastUpdate establishes the baseline without retroactive
// credit. The timestamp only advances when at least one whole interval was
// consumed, so sub-interval polling never discards fractional elapsed time.
func RegenerateEnergy(energy, maxEnergy int, lastUpdate, now time.Time, interval time.Duration) (int, time.Time) {
	if maxEnergy < 1 {
		maxEnergy = 1
	}
	if energy < 0 {
		energy = 0
	}
	if energy > maxEnergy {
		energy = maxEnergy
	}

	if lastUpdate.IsZero() {
		return energy, now
	}
	if interval <= 0 {
		interval = defaultEnergyRegenInterval
	}

	restored := int(now.Sub(lastUpdate) / interval)
	if restored <= 0 {
		// Also covers a clock running backwards: lastUpdate stays put.
		return energy, lastUpdate
	}

	energy += restored
	if energy > maxEnergy {
		energy = maxEnergy
	}
	return energy, now
}

// AccruePassiveIncome credits incomePerMinute for every whole minute since
// lastCollect. The stored timestamp advances by exactly the minutes consumed
// rather than to now, so the sub-minute remainder keeps accruing. A zero
// lastCollect is a baseline call crediting nothing.
func AccruePassiveIncome(incomePerMinute, coins int64, lastCollect, now time.Time) (int64, time.Time, int64) {
	if lastCollect.IsZero() {
		return coins, now, 0
	}

	minutes := int64(now.Sub(lastCollect) / passiveIncomeGranularity)
	if minutes < 1 {
		return coins, lastCollect, 0
	}

	credited := minutes * incomePerMinute
	if credited < 0 {
		credited = 0
	}
	return coins + credited, lastCollect.Add(time.Duration(minutes) * passiveIncomeGranularity), credited
}
