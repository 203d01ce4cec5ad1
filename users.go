package main

import (
	"database/sql"
	"errors"
	"time"
)

// User mirrors one row of the users table. Zero timestamps stand for NULL:
// the accrual model treats them as "no baseline yet".
type User struct {
	ID                   int64
	Username             string
	Coins                int64
	Level                int
	Energy               int
	MaxEnergy            int
	LastEnergyUpdate     time.Time
	LastPassiveIncome    time.Time
	ReferralCode         string
	ReferrerID           *int64
	ReferralsCount       int
	ReferralBonusClaimed bool
}

var ErrUserNotFound = errors.New("user not found")

func nowUTC() time.Time { return time.Now().UTC() }

const userColumns = `
	id, username, coins, level, energy, max_energy,
	last_energy_update, last_passive_income,
	referral_code, referrer_id, referrals_count, referral_bonus_claimed
`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var lastEnergy, lastPassive sql.NullTime
	var referrer sql.NullInt64

	err := row.Scan(
		&u.ID, &u.Username, &u.Coins, &u.Level, &u.Energy, &u.MaxEnergy,
		&lastEnergy, &lastPassive,
		&u.ReferralCode, &referrer, &u.ReferralsCount, &u.ReferralBonusClaimed,
	)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastEnergy.Valid {
		u.LastEnergyUpdate = lastEnergy.Time
	}
	if lastPassive.Valid {
		u.LastPassiveIncome = lastPassive.Time
	}
	if referrer.Valid {
		id := referrer.Int64
		u.ReferrerID = &id
	}
	return &u, nil
}

func LoadUser(db *sql.DB, userID int64) (*User, error) {
	return scanUser(db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID))
}

func LoadUserByUsername(db *sql.DB, username string) (*User, error) {
	return scanUser(db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1
	`, username))
}

func LoadUserByReferralCode(db *sql.DB, code string) (*User, error) {
	return scanUser(db.QueryRow(`
		SELECT `+userColumns+`
		FROM users
		WHERE referral_code = $1
	`, code))
}

// CreateUserTx inserts a fresh user with full energy and a referral code.
// referrerID may be nil. Runs inside the caller's transaction so referral
// bookkeeping commits or rolls back together with the insert.
func CreateUserTx(tx *sql.Tx, username string, maxEnergy int, referralCode string, referrerID *int64) (*User, error) {
	var referrer interface{}
	if referrerID != nil {
		referrer = *referrerID
	}

	return scanUser(tx.QueryRow(`
		INSERT INTO users (
			username, coins, level, energy, max_energy,
			last_energy_update, last_passive_income,
			referral_code, referrer_id, referrals_count, referral_bonus_claimed,
			created_at
		)
		VALUES ($1, 0, 1, $2, $2, $3, $3, $4, $5, 0, FALSE, $3)
		RETURNING `+userColumns+`
	`, username, maxEnergy, nowUTC(), referralCode, referrer))
}

// UpdateUserEnergy persists a regenerated energy reading. A zero lastUpdate
// is stored as NULL, though in practice regeneration always supplies one.
func UpdateUserEnergy(db *sql.DB, userID int64, energy int, lastUpdate time.Time) error {
	res, err := db.Exec(`
		UPDATE users
		SET energy = $2,
			last_energy_update = $3
		WHERE id = $1
	`, userID, energy, nullTime(lastUpdate))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateUserClickState persists the result of one click: coins, level and
// the post-spend energy in a single write.
func UpdateUserClickState(db *sql.DB, userID int64, coins int64, level, energy int, lastUpdate time.Time) error {
	res, err := db.Exec(`
		UPDATE users
		SET coins = $2,
			level = $3,
			energy = $4,
			last_energy_update = $5
		WHERE id = $1
	`, userID, coins, level, energy, nullTime(lastUpdate))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateUserPassiveIncome persists a passive income collection.
func UpdateUserPassiveIncome(db *sql.DB, userID int64, coins int64, lastCollect time.Time) error {
	res, err := db.Exec(`
		UPDATE users
		SET coins = $2,
			last_passive_income = $3
		WHERE id = $1
	`, userID, coins, nullTime(lastCollect))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AdjustUserCoins applies a delta and returns the new balance.
func AdjustUserCoins(db *sql.DB, userID int64, delta int64) (int64, error) {
	var balance int64
	err := db.QueryRow(`
		UPDATE users
		SET coins = coins + $2
		WHERE id = $1
		RETURNING coins
	`, userID, delta).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// debitCoinsTx takes coins from a user only when the balance still covers
// the amount. The condition runs at debit time inside the caller's
// transaction, so a purchase that raced another spend fails cleanly instead
// of overdrawing the account.
func debitCoinsTx(tx *sql.Tx, userID, amount int64) error {
	res, err := tx.Exec(`
		UPDATE users
		SET coins = coins - $1
		WHERE id = $2 AND coins >= $1
	`, amount, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotEnoughCoins
	}
	return nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

/* ======================
   Matchmaking ledger
   ====================== */

// UserBrief is what the matchmaker needs to know about a player.
type UserBrief struct {
	ID       int64
	Username string
	Coins    int64
}

// UserLedger is the matchmaker's view of player persistence. The engine
// never touches SQL directly; tests substitute an in-memory ledger.
type UserLedger interface {
	UserBrief(userID int64) (UserBrief, error)
	AdjustCoins(userID int64, delta int64) (int64, error)
}

type dbLedger struct {
	db *sql.DB
}

func NewDBLedger(db *sql.DB) UserLedger {
	return dbLedger{db: db}
}

func (l dbLedger) UserBrief(userID int64) (UserBrief, error) {
	var b UserBrief
	err := l.db.QueryRow(`
		SELECT id, username, coins
		FROM users
		WHERE id = $1
	`, userID).Scan(&b.ID, &b.Username, &b.Coins)
	if err == sql.ErrNoRows {
		return UserBrief{}, ErrUserNotFound
	}
	if err != nil {
		return UserBrief{}, err
	}
	return b, nil
}

func (l dbLedger) AdjustCoins(userID int64, delta int64) (int64, error) {
	return AdjustUserCoins(l.db, userID, delta)
}
