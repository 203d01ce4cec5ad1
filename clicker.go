package main

import (
	"database/sql"
	"fmt"
)

const (
	maxLevel          = 1000
	coinsPerLevelStep = 1000
)

var errNotEnoughEnergy = fmt.Errorf("not enough energy")

// ClickState is what every clicker operation reports back.
type ClickState struct {
	Username  string `json:"username"`
	Coins     int64  `json:"coins"`
	Level     int    `json:"level"`
	UserID    int64  `json:"userId"`
	Energy    int    `json:"energy"`
	MaxEnergy int    `json:"maxEnergy"`
	Message   string `json:"message,omitempty"`
}

func clickStateOf(u *User, message string) ClickState {
	return ClickState{
		Username:  u.Username,
		Coins:     u.Coins,
		Level:     u.Level,
		UserID:    u.ID,
		Energy:    u.Energy,
		MaxEnergy: u.MaxEnergy,
		Message:   message,
	}
}

// HandleClick regenerates energy lazily, spends one point and credits one
// coin, bumping the level when the threshold is crossed.
func HandleClick(db *sql.DB, cfg EnergyConfig, userID int64) (ClickState, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return ClickState{}, err
	}

	applyEnergyRegen(user, cfg)

	if user.Energy <= 0 {
		// Persist the regen observation even when the click is refused,
		// otherwise the baseline timestamp never advances for a drained
		// player who keeps mashing.
		if err := UpdateUserEnergy(db, user.ID, user.Energy, user.LastEnergyUpdate); err != nil {
			return ClickState{}, err
		}
		return clickStateOf(user, "Not enough energy, wait for it to regenerate."), errNotEnoughEnergy
	}

	user.Energy--
	user.Coins++
	checkLevelUp(user)

	if err := UpdateUserClickState(db, user.ID, user.Coins, user.Level, user.Energy, user.LastEnergyUpdate); err != nil {
		return ClickState{}, err
	}
	return clickStateOf(user, "Click registered."), nil
}

// UserInfo reads the player, folding in any energy regenerated since the
// last observation.
func UserInfo(db *sql.DB, cfg EnergyConfig, userID int64) (ClickState, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return ClickState{}, err
	}

	applyEnergyRegen(user, cfg)
	if err := UpdateUserEnergy(db, user.ID, user.Energy, user.LastEnergyUpdate); err != nil {
		return ClickState{}, err
	}
	return clickStateOf(user, ""), nil
}

// RestoreFullEnergy refills the bar and restarts the regen clock.
func RestoreFullEnergy(db *sql.DB, userID int64) (ClickState, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return ClickState{}, err
	}

	user.Energy = user.MaxEnergy
	user.LastEnergyUpdate = nowUTC()
	if err := UpdateUserEnergy(db, user.ID, user.Energy, user.LastEnergyUpdate); err != nil {
		return ClickState{}, err
	}
	return clickStateOf(user, "Energy fully restored."), nil
}

func applyEnergyRegen(user *User, cfg EnergyConfig) {
	user.Energy, user.LastEnergyUpdate = RegenerateEnergy(
		user.Energy, user.MaxEnergy,
		user.LastEnergyUpdate, nowUTC(),
		cfg.RegenInterval(),
	)
}

// Each level costs level*1000 cumulative coins; at most one level per click.
func checkLevelUp(user *User) {
	if user.Level >= maxLevel {
		return
	}
	required := int64(user.Level+1) * coinsPerLevelStep
	if user.Coins >= required {
		user.Level++
	}
}
