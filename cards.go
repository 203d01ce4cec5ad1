package main

import (
	"database/sql"
	"fmt"
	"log"
)

// Card is either a purchasable template (no owner) or a player-held copy.
type Card struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	Level          int    `json:"level"`
	BaseIncome     int    `json:"baseIncome"`
	UpgradeCost    int    `json:"upgradeCost"`
	IncomePerLevel int    `json:"incomePerLevel"`
	IsAvailable    bool   `json:"isAvailable"`
	OwnerID        *int64 `json:"ownerId,omitempty"`

	CurrentIncome   int `json:"currentIncome"`
	NextUpgradeCost int `json:"nextUpgradeCost"`
}

var (
	errCardNotFound     = fmt.Errorf("card not found")
	errCardAlreadyOwned = fmt.Errorf("card already owned")
	errCardNotOwned     = fmt.Errorf("card not owned by user")
	errNotEnoughCoins   = fmt.Errorf("not enough coins")
)

func (c *Card) derive() {
	c.CurrentIncome = c.BaseIncome + (c.Level-1)*c.IncomePerLevel
	c.NextUpgradeCost = c.UpgradeCost * c.Level
}

// seedCardCatalog inserts the purchasable templates once.
func seedCardCatalog(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`
		SELECT COUNT(*)
		FROM cards
		WHERE owner_id IS NULL
	`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	templates := []Card{
		{Name: "golden_dragon", DisplayName: "3 Golden Dragons", Description: "Three golden dragons bring fortune", BaseIncome: 50, UpgradeCost: 100, IncomePerLevel: 25},
		{Name: "sport_dragon", DisplayName: "Sport Dragon", Description: "A sporty dragon full of energy", BaseIncome: 100, UpgradeCost: 200, IncomePerLevel: 50},
		{Name: "dragon_lamba", DisplayName: "Dragon Lamba", Description: "Dragon Lamba, the symbol of speed", BaseIncome: 300, UpgradeCost: 500, IncomePerLevel: 100},
		{Name: "dragon", DisplayName: "Dragon", Description: "A mighty dragon, the source of power", BaseIncome: 600, UpgradeCost: 1000, IncomePerLevel: 200},
	}

	for _, t := range templates {
		_, err := db.Exec(`
			INSERT INTO cards (name, display_name, description, level, base_income, upgrade_cost, income_per_level, is_available, owner_id)
			VALUES ($1, $2, $3, 1, $4, $5, $6, TRUE, NULL)
		`, t.Name, t.DisplayName, t.Description, t.BaseIncome, t.UpgradeCost, t.IncomePerLevel)
		if err != nil {
			return err
		}
	}

	log.Println("Card catalog seeded:", len(templates), "templates")
	return nil
}

const cardColumns = `
	id, name, display_name, description, level,
	base_income, upgrade_cost, income_per_level, is_available, owner_id
`

func queryCards(db *sql.DB, where string, args ...interface{}) ([]Card, error) {
	rows, err := db.Query(`
		SELECT `+cardColumns+`
		FROM cards
		`+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Card
	for rows.Next() {
		var c Card
		var owner sql.NullInt64
		if err := rows.Scan(
			&c.ID, &c.Name, &c.DisplayName, &c.Description, &c.Level,
			&c.BaseIncome, &c.UpgradeCost, &c.IncomePerLevel, &c.IsAvailable, &owner,
		); err != nil {
			return nil, err
		}
		if owner.Valid {
			id := owner.Int64
			c.OwnerID = &id
		}
		c.derive()
		out = append(out, c)
	}
	return out, rows.Err()
}

func AvailableCards(db *sql.DB) ([]Card, error) {
	return queryCards(db, `WHERE owner_id IS NULL AND is_available ORDER BY base_income`)
}

func UserCards(db *sql.DB, userID int64) ([]Card, error) {
	return queryCards(db, `WHERE owner_id = $1 ORDER BY id`, userID)
}

// TotalCardIncome sums the current per-minute income of a player's cards.
func TotalCardIncome(cards []Card) int64 {
	var total int64
	for _, c := range cards {
		total += int64(c.CurrentIncome)
	}
	return total
}

// BuyCard copies a template into the player's collection at the template's
// base price. One copy of each card per player.
func BuyCard(db *sql.DB, userID int64, cardName string) (*Card, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return nil, err
	}

	owned, err := queryCards(db, `WHERE owner_id = $1 AND name = $2`, userID, cardName)
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, errCardAlreadyOwned
	}

	templates, err := queryCards(db, `WHERE owner_id IS NULL AND name = $1`, cardName)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, errCardNotFound
	}
	template := templates[0]

	cost := int64(template.UpgradeCost)
	if user.Coins < cost {
		return nil, errNotEnoughCoins
	}

	// Debit and card copy commit together; the balance is re-checked at
	// debit time so concurrent purchases cannot overdraw.
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := debitCoinsTx(tx, userID, cost); err != nil {
		return nil, err
	}

	var card Card
	var owner sql.NullInt64
	err = tx.QueryRow(`
		INSERT INTO cards (name, display_name, description, level, base_income, upgrade_cost, income_per_level, is_available, owner_id)
		VALUES ($1, $2, $3, 1, $4, $5, $6, TRUE, $7)
		RETURNING `+cardColumns+`
	`, template.Name, template.DisplayName, template.Description,
		template.BaseIncome, template.UpgradeCost, template.IncomePerLevel, userID,
	).Scan(
		&card.ID, &card.Name, &card.DisplayName, &card.Description, &card.Level,
		&card.BaseIncome, &card.UpgradeCost, &card.IncomePerLevel, &card.IsAvailable, &owner,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if owner.Valid {
		id := owner.Int64
		card.OwnerID = &id
	}
	card.derive()
	return &card, nil
}

// UpgradeCard raises a held card one level for upgradeCost*level coins.
func UpgradeCard(db *sql.DB, userID, cardID int64) (*Card, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return nil, err
	}

	cards, err := queryCards(db, `WHERE id = $1`, cardID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errCardNotFound
	}
	card := cards[0]
	if card.OwnerID == nil || *card.OwnerID != userID {
		return nil, errCardNotOwned
	}

	cost := int64(card.NextUpgradeCost)
	if user.Coins < cost {
		return nil, errNotEnoughCoins
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := debitCoinsTx(tx, userID, cost); err != nil {
		return nil, err
	}

	// The price is keyed to the level read above. If another upgrade landed
	// in between, the charge no longer matches and the whole transaction is
	// abandoned.
	res, err := tx.Exec(`
		UPDATE cards
		SET level = level + 1
		WHERE id = $1 AND level = $2
	`, cardID, card.Level)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("card %d modified concurrently", cardID)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	card.Level++
	card.derive()
	return &card, nil
}

// CollectPassiveIncome credits whole elapsed minutes of summed card income.
// Players without cards collect nothing, though their collection clock still
// advances so the accrual rule stays uniform.
func CollectPassiveIncome(db *sql.DB, userID int64) (int64, error) {
	user, err := LoadUser(db, userID)
	if err != nil {
		return 0, err
	}

	cards, err := UserCards(db, userID)
	if err != nil {
		return 0, err
	}

	newCoins, newLastCollect, credited := AccruePassiveIncome(
		TotalCardIncome(cards), user.Coins,
		user.LastPassiveIncome, nowUTC(),
	)
	if newLastCollect.Equal(user.LastPassiveIncome) && credited == 0 {
		return 0, nil
	}

	if err := UpdateUserPassiveIncome(db, userID, newCoins, newLastCollect); err != nil {
		return 0, err
	}
	return credited, nil
}
