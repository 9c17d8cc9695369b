package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportCreaturesCSV ingests the data pipeline's creature table. The
// file must carry a header row; recognized columns are name,
// oracle_text, color_identity, types, keywords, power, toughness,
// price_usd, commander_legal. Malformed rows are skipped with a logged
// warning, not fatal.
func (db *DB) ImportCreaturesCSV(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open creatures file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[Importer] Error closing %s: %v", path, err)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read creatures header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("creatures file %s has no name column", path)
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("[Importer] Skipping creatures line %d: %v", line, err)
			result.Skipped++
			continue
		}

		row := &CardRow{
			Name:           field(record, cols, "name"),
			OracleText:     field(record, cols, "oracle_text"),
			ColorIdentity:  strings.ReplaceAll(field(record, cols, "color_identity"), ";", ""),
			Types:          field(record, cols, "types"),
			Keywords:       field(record, cols, "keywords"),
			Power:          field(record, cols, "power"),
			Toughness:      field(record, cols, "toughness"),
			CommanderLegal: parseBool(field(record, cols, "commander_legal"), true),
		}
		if price := field(record, cols, "price_usd"); price != "" {
			v, err := strconv.ParseFloat(price, 64)
			if err != nil {
				log.Printf("[Importer] Line %d: ignoring unparseable price %q for %q", line, price, row.Name)
			} else {
				row.PriceUSD = &v
			}
		}

		// Validate eagerly so the database only holds loadable rows.
		if _, err := row.ToCard(); err != nil {
			log.Printf("[Importer] Skipping creatures line %d: %v", line, err)
			result.Skipped++
			continue
		}
		if err := db.UpsertCard(ctx, row); err != nil {
			return nil, err
		}
		result.Imported++
	}

	log.Printf("[Importer] Creatures: imported %d rows, skipped %d", result.Imported, result.Skipped)
	return result, nil
}

// ImportPairsCSV ingests the commander→creature co-occurrence table.
// Recognized columns are commander, creature (or recommended_creature),
// and count; a missing count defaults to 1.
func (db *DB) ImportPairsCSV(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pairs file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[Importer] Error closing %s: %v", path, err)
		}
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs header: %w", err)
	}
	cols := columnIndex(header)

	creatureCol := "creature"
	if _, ok := cols[creatureCol]; !ok {
		creatureCol = "recommended_creature"
	}
	if _, ok := cols["commander"]; !ok {
		return nil, fmt.Errorf("pairs file %s has no commander column", path)
	}
	if _, ok := cols[creatureCol]; !ok {
		return nil, fmt.Errorf("pairs file %s has no creature column", path)
	}

	result := &ImportResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("[Importer] Skipping pairs line %d: %v", line, err)
			result.Skipped++
			continue
		}

		commander := field(record, cols, "commander")
		creature := field(record, cols, creatureCol)
		if commander == "" || creature == "" {
			log.Printf("[Importer] Skipping pairs line %d: missing commander or creature", line)
			result.Skipped++
			continue
		}

		count := 1
		if raw := field(record, cols, "count"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 0 {
				log.Printf("[Importer] Skipping pairs line %d: bad count %q", line, raw)
				result.Skipped++
				continue
			}
			count = v
		}

		if err := db.UpsertPair(ctx, commander, creature, count); err != nil {
			return nil, err
		}
		result.Imported++
	}

	log.Printf("[Importer] Pairs: imported %d rows, skipped %d", result.Imported, result.Skipped)
	return result, nil
}

// columnIndex maps lower-cased header names to positions.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// field returns the trimmed value of a named column, empty when the
// column is absent or the record is short.
func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseBool parses permissive boolean text ("1", "true", "yes").
func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "":
		return fallback
	case "1", "true", "t", "yes", "y", "legal":
		return true
	default:
		return false
	}
}
