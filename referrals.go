package main

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
)

const (
	referralBonusPerUser = 10000
	referralCodeLength   = 8
	referralCodeChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type ReferralInfo struct {
	ReferralCode string `json:"referralCode"`
	Referrals    int    `json:"referralsCount"`
	BonusClaimed bool   `json:"bonusClaimed"`
	PendingBonus int64  `json:"pendingBonus"`
}

var (
	errUsernameTaken     = fmt.Errorf("username already taken")
	errBadReferralCode   = fmt.Errorf("unknown referral code")
	errBonusAlreadyTaken = fmt.Errorf("referral bonus already claimed")
	errNoReferrals       = fmt.Errorf("no referrals to claim for")
)

func generateReferralCode() string {
	b := make([]byte, referralCodeLength)
	max := big.NewInt(int64(len(referralCodeChars)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = referralCodeChars[idx.Int64()]
	}
	return string(b)
}

func GetReferralInfo(db *sql.DB, userID int64) (ReferralInfo, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return ReferralInfo{}, err
	}
	return ReferralInfo{
		ReferralCode: user.ReferralCode,
		Referrals:    user.ReferralsCount,
		BonusClaimed: user.ReferralBonusClaimed,
		PendingBonus: int64(user.ReferralsCount) * referralBonusPerUser,
	}, nil
}

// RegisterWithReferral creates the user and, when a valid code is supplied,
// credits the referrer's count. Self-referral is ignored rather than
// rewarded.
func RegisterWithReferral(db *sql.DB, username, referralCode string, maxEnergy int) (*User, error) {
	if existing, err := LoadUserByUsername(db, username); err == nil && existing != nil {
		return nil, errUsernameTaken
	} else if err != nil && err != ErrUserNotFound {
		return nil, err
	}

	var referrerID *int64
	code := strings.TrimSpace(referralCode)
	if code != "" {
		referrer, err := LoadUserByReferralCode(db, code)
		if err == ErrUserNotFound {
			return nil, errBadReferralCode
		}
		if err != nil {
			return nil, err
		}
		if referrer.Username != username {
			referrerID = &referrer.ID
		}
	}

	return createReferredUser(db, username, maxEnergy, referrerID)
}

// createReferredUser inserts the user and, for referred signups, bumps the
// referrer's count in the same transaction. A failed insert rolls the count
// back, so the referrer never holds a referral for a user that was not
// created.
func createReferredUser(db *sql.DB, username string, maxEnergy int, referrerID *int64) (*User, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if referrerID != nil {
		if _, err := tx.Exec(`
			UPDATE users
			SET referrals_count = referrals_count + 1
			WHERE id = $1
		`, *referrerID); err != nil {
			return nil, err
		}
	}

	user, err := CreateUserTx(tx, username, maxEnergy, generateReferralCode(), referrerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// ClaimReferralBonus pays 10000 coins per referral, once.
func ClaimReferralBonus(db *sql.DB, userID int64) (int64, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return 0, err
	}
	if user.ReferralBonusClaimed {
		return 0, errBonusAlreadyTaken
	}
	if user.ReferralsCount == 0 {
		return 0, errNoReferrals
	}

	bonus := int64(user.ReferralsCount) * referralBonusPerUser
	res, err := db.Exec(`
		UPDATE users
		SET coins = coins + $1,
			referral_bonus_claimed = TRUE
		WHERE id = $2 AND NOT referral_bonus_claimed
	`, bonus, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// Lost a race with another claim for the same user.
		return 0, errBonusAlreadyTaken
	}
	return bonus, nil
}
