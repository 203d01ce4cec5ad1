package main

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
)

type leaderboardFilters struct {
	Query    string
	Sort     string
	Page     int
	PageSize int
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Coins    int64  `json:"coins"`
	Level    int    `json:"level"`
}

type LeaderboardResponse struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int                `json:"total"`
	Results  []LeaderboardEntry `json:"results"`
}

func leaderboardHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		filters := parseLeaderboardFilters(r)
		orderBy := leaderboardOrderBy(filters.Sort)

		whereClauses := []string{"1=1"}
		args := []interface{}{}
		if filters.Query != "" {
			whereClauses = append(whereClauses, "username ILIKE $"+strconv.Itoa(len(args)+1))
			args = append(args, "%"+filters.Query+"%")
		}
		where := strings.Join(whereClauses, " AND ")

		var total int
		if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
			log.Println("leaderboard count failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}

		offset := (filters.Page - 1) * filters.PageSize
		argsWithPage := append(args, filters.PageSize, offset)
		rows, err := db.Query(`
			SELECT ROW_NUMBER() OVER (ORDER BY `+orderBy+`) AS rank,
				id, username, coins, level
			FROM users
			WHERE `+where+`
			ORDER BY `+orderBy+`
			LIMIT $`+strconv.Itoa(len(args)+1)+` OFFSET $`+strconv.Itoa(len(args)+2)+`
		`, argsWithPage...)
		if err != nil {
			log.Println("leaderboard query failed:", err)
			writeJSON(w, http.StatusInternalServerError, SimpleResponse{OK: false, Error: "INTERNAL_ERROR"})
			return
		}
		defer rows.Close()

		results := []LeaderboardEntry{}
		for rows.Next() {
			var entry LeaderboardEntry
			if err := rows.Scan(&entry.Rank, &entry.UserID, &entry.Username, &entry.Coins, &entry.Level); err != nil {
				continue
			}
			results = append(results, entry)
		}

		writeJSON(w, http.StatusOK, LeaderboardResponse{
			Page:     filters.Page,
			PageSize: filters.PageSize,
			Total:    total,
			Results:  results,
		})
	}
}

func parseLeaderboardFilters(r *http.Request) leaderboardFilters {
	query := r.URL.Query()
	page := parsePositiveInt(query.Get("page"), 1)
	pageSize := parsePositiveInt(query.Get("pageSize"), 50)
	if pageSize > 200 {
		pageSize = 200
	}

	return leaderboardFilters{
		Query:    strings.TrimSpace(query.Get("q")),
		Sort:     strings.TrimSpace(query.Get("sort")),
		Page:     page,
		PageSize: pageSize,
	}
}

func leaderboardOrderBy(sortKey string) string {
	switch sortKey {
	case "level":
		return "level DESC, coins DESC, created_at ASC, id ASC"
	case "coins_asc":
		return "coins ASC, created_at ASC, id ASC"
	case "coins", "":
		fallthrough
	default:
		return "coins DESC, level DESC, created_at ASC, id ASC"
	}
}

func parsePositiveInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}
