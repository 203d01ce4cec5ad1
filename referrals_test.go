package main

import "testing"

func TestRegisterWithReferralCountsReferrer(t *testing.T) {
	db := newEconomyTestDB(t)

	alice, err := RegisterWithReferral(db, "alice", "", 500)
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if alice.ReferralCode == "" {
		t.Fatal("no referral code assigned")
	}

	bob, err := RegisterWithReferral(db, "bob", alice.ReferralCode, 500)
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	if bob.ReferrerID == nil || *bob.ReferrerID != alice.ID {
		t.Fatalf("referrer=%v want %d", bob.ReferrerID, alice.ID)
	}

	info, err := GetReferralInfo(db, alice.ID)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Referrals != 1 || info.PendingBonus != referralBonusPerUser {
		t.Fatalf("info=%+v", info)
	}

	if _, err := RegisterWithReferral(db, "carol", "NOSUCHCODE", 500); err != errBadReferralCode {
		t.Fatalf("bad code err=%v want errBadReferralCode", err)
	}
	if _, err := RegisterWithReferral(db, "bob", "", 500); err != errUsernameTaken {
		t.Fatalf("duplicate err=%v want errUsernameTaken", err)
	}
}

// A failed insert rolls the referrer's count back with it, so a signup that
// never happened cannot inflate the claimable bonus.
func TestRegisterFailureRollsBackReferralCount(t *testing.T) {
	db := newEconomyTestDB(t)

	alice, err := RegisterWithReferral(db, "alice", "", 500)
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if _, err := RegisterWithReferral(db, "bob", alice.ReferralCode, 500); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// The username collides inside the transaction, after the count bump.
	if _, err := createReferredUser(db, "bob", 500, &alice.ID); err == nil {
		t.Fatal("duplicate insert succeeded")
	}

	reloaded, err := LoadUser(db, alice.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ReferralsCount != 1 {
		t.Fatalf("referralsCount=%d want 1", reloaded.ReferralsCount)
	}
}

func TestClaimReferralBonusOnce(t *testing.T) {
	db := newEconomyTestDB(t)

	alice, err := RegisterWithReferral(db, "alice", "", 500)
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}

	if _, err := ClaimReferralBonus(db, alice.ID); err != errNoReferrals {
		t.Fatalf("claim without referrals err=%v want errNoReferrals", err)
	}

	if _, err := RegisterWithReferral(db, "bob", alice.ReferralCode, 500); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	bonus, err := ClaimReferralBonus(db, alice.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if bonus != referralBonusPerUser {
		t.Fatalf("bonus=%d want %d", bonus, referralBonusPerUser)
	}
	if got := userCoins(t, db, alice.ID); got != referralBonusPerUser {
		t.Fatalf("coins=%d want %d", got, referralBonusPerUser)
	}

	if _, err := ClaimReferralBonus(db, alice.ID); err != errBonusAlreadyTaken {
		t.Fatalf("second claim err=%v want errBonusAlreadyTaken", err)
	}
	if got := userCoins(t, db, alice.ID); got != referralBonusPerUser {
		t.Fatalf("double pay: coins=%d", got)
	}
}
