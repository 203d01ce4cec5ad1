package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
)

/* ======================
   Request / Response Types
   ====================== */

type SimpleResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type UpdateScoreRequest struct {
	MatchID string `json:"matchId"`
	Score   int    `json:"score"`
}

type FinishGameRequest struct {
	MatchID string `json:"matchId"`
}

type MatchHistoryResponse struct {
	OK      bool            `json:"ok"`
	Matches []ArchivedMatch `json:"matches"`
}

type CreateUserRequest struct {
	Username     string `json:"username"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type BuyCardRequest struct {
	CardName string `json:"cardName"`
}

type UpgradeCardRequest struct {
	CardID int64 `json:"cardId"`
}

type CardActionResponse struct {
	OK   bool  `json:"ok"`
	Card *Card `json:"card,omitempty"`
}

type CollectIncomeResponse struct {
	OK       bool  `json:"ok"`
	Credited int64 `json:"credited"`
}

type ClaimBonusResponse struct {
	OK    bool  `json:"ok"`
	Bonus int64 `json:"bonus"`
}

type ProfileResponse struct {
	UserID             int64  `json:"userId"`
	Username           string `json:"username"`
	Coins              int64  `json:"coins"`
	Level              int    `json:"level"`
	Energy             int    `json:"energy"`
	MaxEnergy          int    `json:"maxEnergy"`
	CardsCount         int    `json:"cardsCount"`
	TotalPassiveIncome int64  `json:"totalPassiveIncome"`
	ReferralCode       string `json:"referralCode"`
	ReferralsCount     int    `json:"referralsCount"`
	ReferralBonus      int64  `json:"referralBonus"`
	BonusClaimed       bool   `json:"bonusClaimed"`
}

/* ======================
   main()
   ====================== */

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	log.Println("App environment:", env)

	cfgPath := os.Getenv("GAME_CONFIG")
	cfg, err := LoadGameConfig(cfgPath)
	if err != nil {
		log.Fatal("failed to load game config:", err)
	}
	log.Printf("Match settings: countdown=%s play=%s win=%d loss=%d",
		cfg.Multiplayer.Countdown(), cfg.Multiplayer.PlayDuration(),
		cfg.Multiplayer.WinReward, cfg.Multiplayer.LossPenalty)

	// Database
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal("failed to open database:", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping database:", err)
	}
	log.Println("Connected to PostgreSQL")

	if err := ensureSchema(db); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}
	if err := seedCardCatalog(db); err != nil {
		log.Fatal("Failed to seed card catalog:", err)
	}

	// Match event log (optional)
	var events *MatchEventLog
	if dir := os.Getenv("MATCH_LOG_DIR"); dir != "" {
		events = NewMatchEventLog(dir)
		defer events.Close()
		log.Println("Match event log:", dir)
	}

	// Local match archive (optional)
	var archive *MatchArchive
	if path := os.Getenv("MATCH_ARCHIVE_PATH"); path != "" {
		archive, err = OpenMatchArchive(path)
		if err != nil {
			log.Fatal("Failed to open match archive:", err)
		}
		defer archive.Close()
		log.Println("Match archive:", path)
	}

	mm := NewMatchmaker(NewDBLedger(db), cfg.Multiplayer, events, archive)
	mm.StartSweeper()

	// HTTP server
	mux := http.NewServeMux()
	registerRoutes(mux, db, mm, archive, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	addr := "0.0.0.0:" + port
	log.Println("Listening on", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("server failed:", err)
	}
}

/* ======================
   Routes
   ====================== */

func registerRoutes(mux *http.ServeMux, db *sql.DB, mm *Matchmaker, archive *MatchArchive, cfg GameConfig) {
	mux.HandleFunc("/health", healthHandler)

	mux.HandleFunc("/api/multiplayer/find-match", findMatchHandler(mm))
	mux.HandleFunc("/api/multiplayer/match-status", matchStatusHandler(mm))
	mux.HandleFunc("/api/multiplayer/update-score", updateScoreHandler(mm))
	mux.HandleFunc("/api/multiplayer/finish-game", finishGameHandler(mm))
	mux.HandleFunc("/api/multiplayer/cancel-search", cancelSearchHandler(mm))
	mux.HandleFunc("/api/multiplayer/active-games", activeGamesHandler(mm))
	mux.HandleFunc("/api/multiplayer/match-history", matchHistoryHandler(archive))
	mux.HandleFunc("/api/multiplayer/watch", matchWatchHandler(mm))

	mux.HandleFunc("/api/clicker/create-user", createUserHandler(db, cfg.Energy))
	mux.HandleFunc("/api/clicker/click-by-id", clickHandler(db, cfg.Energy))
	mux.HandleFunc("/api/clicker/user-info", userInfoHandler(db, cfg.Energy))
	mux.HandleFunc("/api/clicker/restore-energy", restoreEnergyHandler(db))

	mux.HandleFunc("/api/cards/available", availableCardsHandler(db))
	mux.HandleFunc("/api/cards/my-cards", myCardsHandler(db))
	mux.HandleFunc("/api/cards/buy", buyCardHandler(db))
	mux.HandleFunc("/api/cards/upgrade", upgradeCardHandler(db))
	mux.HandleFunc("/api/cards/collect-income", collectIncomeHandler(db))

	mux.HandleFunc("/api/referral/info", referralInfoHandler(db))
	mux.HandleFunc("/api/referral/register", registerWithReferralHandler(db, cfg.Energy))
	mux.HandleFunc("/api/referral/claim-bonus", claimReferralBonusHandler(db))

	mux.HandleFunc("/api/profile", profileHandler(db, cfg.Energy))
	mux.HandleFunc("/api/leaderboard", leaderboardHandler(db))
}
