package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/ramonehamilton/commander-crafter/internal/corpus"
)

// UpsertPair inserts or accumulates a commander→creature pair count.
func (db *DB) UpsertPair(ctx context.Context, commander, creature string, count int) error {
	if count < 0 {
		return fmt.Errorf("pair (%s, %s): negative count %d", commander, creature, count)
	}
	query := `
		INSERT INTO pairs (commander, creature, count)
		VALUES (?, ?, ?)
		ON CONFLICT(commander, creature) DO UPDATE SET count = count + excluded.count
	`
	_, err := db.conn.ExecContext(ctx, query, commander, creature, count)
	if err != nil {
		return fmt.Errorf("failed to upsert pair (%s, %s): %w", commander, creature, err)
	}
	return nil
}

// LoadPairs materializes the immutable pair corpus from the pairs table.
func (db *DB) LoadPairs(ctx context.Context) (*corpus.PairCorpus, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT commander, creature, count FROM pairs ORDER BY commander, creature`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("[Storage] Error closing rows: %v", err)
		}
	}()

	var records []corpus.PairRecord
	for rows.Next() {
		var rec corpus.PairRecord
		if err := rows.Scan(&rec.Commander, &rec.Creature, &rec.Count); err != nil {
			return nil, fmt.Errorf("failed to scan pair row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pair rows: %w", err)
	}

	return corpus.NewPairCorpus(records), nil
}
