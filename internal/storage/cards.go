package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/ramonehamilton/commander-crafter/internal/cards"
)

// CardRow is the persisted form of a card, with stats and lists kept as
// raw text so malformed pipeline data survives until load validation.
type CardRow struct {
	Name           string
	OracleText     string
	ColorIdentity  string // concatenated symbols, e.g. "WU"
	Types          string // space-separated
	Keywords       string // semicolon-separated
	Power          string
	Toughness      string
	PriceUSD       *float64
	CommanderLegal bool
}

// UpsertCard inserts or replaces a card row.
func (db *DB) UpsertCard(ctx context.Context, row *CardRow) error {
	query := `
		INSERT INTO cards (name, oracle_text, color_identity, types, keywords, power, toughness, price_usd, commander_legal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			oracle_text = excluded.oracle_text,
			color_identity = excluded.color_identity,
			types = excluded.types,
			keywords = excluded.keywords,
			power = excluded.power,
			toughness = excluded.toughness,
			price_usd = excluded.price_usd,
			commander_legal = excluded.commander_legal,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := db.conn.ExecContext(ctx, query,
		row.Name, row.OracleText, row.ColorIdentity, row.Types, row.Keywords,
		row.Power, row.Toughness, row.PriceUSD, row.CommanderLegal,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %q: %w", row.Name, err)
	}
	return nil
}

// UpdatePrice sets the market price for a card.
func (db *DB) UpdatePrice(ctx context.Context, name string, priceUSD float64) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE cards SET price_usd = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		priceUSD, name,
	)
	if err != nil {
		return fmt.Errorf("failed to update price for %q: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check price update for %q: %w", name, err)
	}
	if rows == 0 {
		return fmt.Errorf("card %q not found", name)
	}
	return nil
}

// CardsMissingPrice returns names of cards with no stored price, capped
// at limit (0 = no cap).
func (db *DB) CardsMissingPrice(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT name FROM cards WHERE price_usd IS NULL ORDER BY name`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards missing price: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[Storage] Error closing rows: %v", err)
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan card name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadCatalog materializes the immutable card catalog from the cards
// table. Rows with unparseable stats or color identities are skipped
// with a logged warning; an empty result is a load error.
func (db *DB) LoadCatalog(ctx context.Context) (*cards.Catalog, error) {
	query := `
		SELECT name, oracle_text, color_identity, types, keywords, power, toughness, price_usd, commander_legal
		FROM cards ORDER BY name
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[Storage] Error closing rows: %v", err)
		}
	}()

	var loaded []*cards.Card
	skipped := 0
	for rows.Next() {
		var row CardRow
		var price sql.NullFloat64
		if err := rows.Scan(&row.Name, &row.OracleText, &row.ColorIdentity, &row.Types,
			&row.Keywords, &row.Power, &row.Toughness, &price, &row.CommanderLegal); err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		if price.Valid {
			row.PriceUSD = &price.Float64
		}

		card, err := row.ToCard()
		if err != nil {
			log.Printf("[Storage] Skipping malformed card row: %v", err)
			skipped++
			continue
		}
		loaded = append(loaded, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	if skipped > 0 {
		log.Printf("[Storage] Skipped %d malformed card rows", skipped)
	}

	catalog, err := cards.NewCatalog(loaded)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return catalog, nil
}

// ToCard converts a persisted row to a validated Card.
func (r *CardRow) ToCard() (*cards.Card, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("card row has no name")
	}

	power, err := cards.ParseStat(r.Power)
	if err != nil {
		return nil, fmt.Errorf("card %q: power: %w", r.Name, err)
	}
	toughness, err := cards.ParseStat(r.Toughness)
	if err != nil {
		return nil, fmt.Errorf("card %q: toughness: %w", r.Name, err)
	}

	colors, err := cards.NormalizeColors(strings.Split(r.ColorIdentity, ""))
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", r.Name, err)
	}

	card := &cards.Card{
		Name:           r.Name,
		OracleText:     r.OracleText,
		ColorIdentity:  colors,
		Types:          strings.Fields(r.Types),
		Keywords:       splitList(r.Keywords),
		Power:          power,
		Toughness:      toughness,
		PriceUSD:       r.PriceUSD,
		CommanderLegal: r.CommanderLegal,
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// splitList splits a semicolon-separated list, trimming blanks.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
