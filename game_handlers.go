package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

/* ======================
   Clicker
   ====================== */

func createUserHandler(db *sql.DB, cfg EnergyConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}
		if !isValidUsername(req.Username) {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_USERNAME"})
			return
		}

		user, err := LoadUserByUsername(db, req.Username)
		if err == nil {
			writeJSON(w, http.StatusOK, clickStateOf(user, "User already exists."))
			return
		}
		if err != ErrUserNotFound {
			log.Println("create-user lookup failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}

		user, err = RegisterWithReferral(db, req.Username, req.ReferralCode, cfg.DefaultMax)
		if err == errBadReferralCode {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REFERRAL_CODE"})
			return
		}
		if err != nil {
			log.Println("create-user failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, clickStateOf(user, "User created."))
	}
}

func clickHandler(db *sql.DB, cfg EnergyConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		state, err := HandleClick(db, cfg, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err == errNotEnoughEnergy {
			writeJSON(w, http.StatusOK, state)
			return
		}
		if err != nil {
			log.Println("click failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func userInfoHandler(db *sql.DB, cfg EnergyConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		state, err := UserInfo(db, cfg, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			log.Println("user-info failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func restoreEnergyHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		state, err := RestoreFullEnergy(db, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			log.Println("restore-energy failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

/* ======================
   Cards
   ====================== */

func availableCardsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := AvailableCards(db)
		if err != nil {
			log.Println("available cards query failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		if cards == nil {
			cards = []Card{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func myCardsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		cards, err := UserCards(db, userID)
		if err != nil {
			log.Println("user cards query failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		if cards == nil {
			cards = []Card{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

func buyCardHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		var req BuyCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.CardName) == "" {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}

		card, err := BuyCard(db, userID, req.CardName)
		switch err {
		case nil:
			writeJSON(w, http.StatusOK, CardActionResponse{OK: true, Card: card})
		case ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
		case errCardNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "CARD_NOT_FOUND"})
		case errCardAlreadyOwned:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "CARD_ALREADY_OWNED"})
		case errNotEnoughCoins:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "NOT_ENOUGH_COINS"})
		default:
			log.Println("buy card failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
		}
	}
}

func upgradeCardHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		var req UpgradeCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CardID <= 0 {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}

		card, err := UpgradeCard(db, userID, req.CardID)
		switch err {
		case nil:
			writeJSON(w, http.StatusOK, CardActionResponse{OK: true, Card: card})
		case ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
		case errCardNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "CARD_NOT_FOUND"})
		case errCardNotOwned:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "CARD_NOT_OWNED"})
		case errNotEnoughCoins:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "NOT_ENOUGH_COINS"})
		default:
			log.Println("upgrade card failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
		}
	}
}

func collectIncomeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		credited, err := CollectPassiveIncome(db, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			log.Println("collect income failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, CollectIncomeResponse{OK: true, Credited: credited})
	}
}

/* ======================
   Referrals
   ====================== */

func referralInfoHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		info, err := GetReferralInfo(db, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			log.Println("referral info failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func claimReferralBonusHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		bonus, err := ClaimReferralBonus(db, userID)
		switch err {
		case nil:
			writeJSON(w, http.StatusOK, ClaimBonusResponse{OK: true, Bonus: bonus})
		case ErrUserNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
		case errBonusAlreadyTaken:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "BONUS_ALREADY_CLAIMED"})
		case errNoReferrals:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "NO_REFERRALS"})
		default:
			log.Println("claim referral bonus failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
		}
	}
}

/* ======================
   Profile
   ====================== */

func profileHandler(db *sql.DB, cfg EnergyConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		user, err := LoadUser(db, userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			log.Println("profile load failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}

		applyEnergyRegen(user, cfg)
		if err := UpdateUserEnergy(db, user.ID, user.Energy, user.LastEnergyUpdate); err != nil {
			log.Println("profile energy persist failed:", err)
		}

		cards, err := UserCards(db, userID)
		if err != nil {
			log.Println("profile cards query failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}

		writeJSON(w, http.StatusOK, ProfileResponse{
			UserID:             user.ID,
			Username:           user.Username,
			Coins:              user.Coins,
			Level:              user.Level,
			Energy:             user.Energy,
			MaxEnergy:          user.MaxEnergy,
			CardsCount:         len(cards),
			TotalPassiveIncome: TotalCardIncome(cards),
			ReferralCode:       user.ReferralCode,
			ReferralsCount:     user.ReferralsCount,
			ReferralBonus:      int64(user.ReferralsCount) * referralBonusPerUser,
			BonusClaimed:       user.ReferralBonusClaimed,
		})
	}
}

func registerWithReferralHandler(db *sql.DB, cfg EnergyConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}
		if !isValidUsername(req.Username) {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_USERNAME"})
			return
		}

		user, err := RegisterWithReferral(db, req.Username, req.ReferralCode, cfg.DefaultMax)
		switch err {
		case nil:
			writeJSON(w, http.StatusOK, clickStateOf(user, "User registered."))
		case errUsernameTaken:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "USERNAME_TAKEN"})
		case errBadReferralCode:
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REFERRAL_CODE"})
		default:
			log.Println("referral register failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
		}
	}
}
