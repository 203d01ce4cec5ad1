package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// bot-runner drives pairs of throwaway accounts through the matchmaking
// flow against a running server. One run takes each bot through create,
// search, score reporting and finish; run it from cron or a loop for
// sustained load.

type BotState struct {
	Username string
	UserID   int64
	MatchID  string
}

type ClickStateResponse struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId"`
	Coins    int64  `json:"coins"`
	Message  string `json:"message,omitempty"`
}

type MatchmakingResponse struct {
	MatchID          string `json:"matchId,omitempty"`
	Status           string `json:"status"`
	OpponentID       *int64 `json:"opponentId,omitempty"`
	CountdownSeconds int    `json:"countdownSeconds"`
}

type SessionResponse struct {
	MatchID      string `json:"matchId"`
	Status       string `json:"status"`
	WinnerID     *int64 `json:"winnerId,omitempty"`
	CoinsReward  *int64 `json:"coinsReward,omitempty"`
	Player1Score int    `json:"player1Score"`
	Player2Score int    `json:"player2Score"`
}

type SimpleResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func main() {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		logError("API_BASE_URL is required")
		os.Exit(1)
	}

	pairs := parseEnvInt("BOT_PAIRS", 1)
	scoreRounds := parseEnvInt("BOT_SCORE_ROUNDS", 5)
	minDelay := parseEnvInt("BOT_RATE_LIMIT_MIN_MS", 200)
	maxDelay := parseEnvInt("BOT_RATE_LIMIT_MAX_MS", 1000)

	rand.Seed(time.Now().UnixNano())
	client := &http.Client{Timeout: 15 * time.Second}

	for i := 0; i < pairs; i++ {
		a, err := createBot(client, baseURL)
		if err != nil {
			logError(fmt.Sprintf("create bot: %v", err))
			continue
		}
		b, err := createBot(client, baseURL)
		if err != nil {
			logError(fmt.Sprintf("create bot: %v", err))
			continue
		}

		if err := runMatch(client, baseURL, a, b, scoreRounds, minDelay, maxDelay); err != nil {
			logError(fmt.Sprintf("match %s vs %s: %v", a.Username, b.Username, err))
			continue
		}
	}
}

func createBot(client *http.Client, baseURL string) (*BotState, error) {
	username := fmt.Sprintf("bot_%d", rand.Int63n(1_000_000_000))
	payload := map[string]string{"username": username}
	body, _ := json.Marshal(payload)

	res, err := client.Post(baseURL+"/api/clicker/create-user", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var state ClickStateResponse
	if err := decodeJSON(res.Body, &state); err != nil {
		return nil, err
	}
	if state.UserID == 0 {
		return nil, errors.New("no user id in response")
	}
	logInfo(fmt.Sprintf("%s created (id=%d)", username, state.UserID))
	return &BotState{Username: username, UserID: state.UserID}, nil
}

func runMatch(client *http.Client, baseURL string, a, b *BotState, scoreRounds, minDelay, maxDelay int) error {
	respA, err := findMatch(client, baseURL, a)
	if err != nil {
		return err
	}
	if respA.Status != "SEARCHING" {
		return fmt.Errorf("first bot got %s, expected SEARCHING", respA.Status)
	}

	respB, err := findMatch(client, baseURL, b)
	if err != nil {
		return err
	}
	if respB.Status != "FOUND" {
		return fmt.Errorf("second bot got %s, expected FOUND", respB.Status)
	}
	a.MatchID = respB.MatchID
	b.MatchID = respB.MatchID
	logInfo(fmt.Sprintf("match %s: %s vs %s, countdown %ds",
		respB.MatchID, a.Username, b.Username, respB.CountdownSeconds))

	time.Sleep(time.Duration(respB.CountdownSeconds) * time.Second)

	scoreA, scoreB := 0, 0
	for round := 0; round < scoreRounds; round++ {
		scoreA += rand.Intn(10)
		scoreB += rand.Intn(10)
		if err := reportScore(client, baseURL, a, scoreA); err != nil {
			return err
		}
		if err := reportScore(client, baseURL, b, scoreB); err != nil {
			return err
		}
		sleepJitter(minDelay, maxDelay)
	}

	sess, err := finishMatch(client, baseURL, a)
	if err != nil {
		return err
	}
	reward := "none"
	if sess.CoinsReward != nil {
		reward = strconv.FormatInt(*sess.CoinsReward, 10)
	}
	winner := int64(0)
	if sess.WinnerID != nil {
		winner = *sess.WinnerID
	}
	logInfo(fmt.Sprintf("match %s finished: %d-%d, winner=%d reward=%s",
		sess.MatchID, sess.Player1Score, sess.Player2Score, winner, reward))
	return nil
}

func findMatch(client *http.Client, baseURL string, bot *BotState) (*MatchmakingResponse, error) {
	res, err := doPost(client, baseURL+"/api/multiplayer/find-match", bot.UserID, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var response MatchmakingResponse
	if err := decodeJSON(res.Body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func reportScore(client *http.Client, baseURL string, bot *BotState, score int) error {
	payload := map[string]interface{}{"matchId": bot.MatchID, "score": score}
	res, err := doPost(client, baseURL+"/api/multiplayer/update-score", bot.UserID, payload)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var response SimpleResponse
	if err := decodeJSON(res.Body, &response); err != nil {
		return err
	}
	if !response.OK {
		return errors.New(response.Error)
	}
	return nil
}

func finishMatch(client *http.Client, baseURL string, bot *BotState) (*SessionResponse, error) {
	payload := map[string]string{"matchId": bot.MatchID}
	res, err := doPost(client, baseURL+"/api/multiplayer/finish-game", bot.UserID, payload)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var response SessionResponse
	if err := decodeJSON(res.Body, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func doPost(client *http.Client, url string, userID int64, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
	return client.Do(req)
}

func decodeJSON(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func sleepJitter(minMs int, maxMs int) {
	if minMs <= 0 {
		return
	}
	if maxMs < minMs {
		maxMs = minMs
	}
	jitter := rand.Intn(maxMs-minMs+1) + minMs
	time.Sleep(time.Duration(jitter) * time.Millisecond)
}

func parseEnvInt(key string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}

func logInfo(message string) {
	fmt.Printf("[INFO] %s %s\n", time.Now().Format(time.RFC3339), message)
}

func logError(message string) {
	fmt.Printf("[ERROR] %s %s\n", time.Now().Format(time.RFC3339), message)
}
