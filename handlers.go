package main

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requireUserID reads the numeric X-User-Id header the game clients send.
// Authentication proper is out of scope; the header is trusted.
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-User-Id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_USER_ID"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

/* ======================
   Multiplayer
   ====================== */

func findMatchHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		resp, err := mm.FindOpponent(userID)
		if err == ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "USER_NOT_FOUND"})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func matchStatusHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("matchId")
		sess, ok := mm.MatchStatus(matchID)
		if !ok {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "MATCH_NOT_FOUND"})
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func updateScoreHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		var req UpdateScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}
		if req.Score < 0 {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_SCORE"})
			return
		}

		switch mm.UpdateScore(req.MatchID, userID, req.Score) {
		case ScoreAccepted:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: true})
		case ScoreMatchNotFound:
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "MATCH_NOT_FOUND"})
		case ScoreAlreadyFinished:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "MATCH_FINISHED"})
		case ScoreUnknownPlayer:
			writeJSON(w, http.StatusOK, SimpleResponse{OK: false, Error: "NOT_IN_MATCH"})
		}
	}
}

func finishGameHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req FinishGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, SimpleResponse{OK: false, Error: "INVALID_REQUEST"})
			return
		}

		sess, ok := mm.FinishGame(req.MatchID)
		if !ok {
			writeJSON(w, http.StatusNotFound, SimpleResponse{OK: false, Error: "MATCH_NOT_FOUND"})
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func cancelSearchHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		userID, ok := requireUserID(w, r)
		if !ok {
			return
		}

		mm.CancelSearch(userID)
		writeJSON(w, http.StatusOK, SimpleResponse{OK: true})
	}
}

func activeGamesHandler(mm *Matchmaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, mm.ActiveGames())
	}
}

func matchHistoryHandler(archive *MatchArchive) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if archive == nil {
			writeJSON(w, http.StatusOK, MatchHistoryResponse{OK: true, Matches: []ArchivedMatch{}})
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		matches, err := archive.Recent(limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		if matches == nil {
			matches = []ArchivedMatch{}
		}
		writeJSON(w, http.StatusOK, MatchHistoryResponse{OK: true, Matches: matches})
	}
}
