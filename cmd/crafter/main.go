// Command crafter is the Commander Crafter CLI: import pipeline data,
// query recommendations, inspect commander profiles, and backfill
// prices.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ramonehamilton/commander-crafter/internal/charts"
	"github.com/ramonehamilton/commander-crafter/internal/config"
	"github.com/ramonehamilton/commander-crafter/internal/engine"
	"github.com/ramonehamilton/commander-crafter/internal/scryfall"
	"github.com/ramonehamilton/commander-crafter/internal/storage"
	"github.com/ramonehamilton/commander-crafter/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "recommend":
		err = runRecommend(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "prices":
		err = runPrices(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Printf("crafter %s\n", version.GetVersion())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Commander Crafter

Usage:
  crafter import -creatures FILE -pairs FILE   Import pipeline CSVs into the database
  crafter recommend -commander NAME [flags]    Print recommendations for a commander
  crafter info -commander NAME                 Show a commander's consensus profile
  crafter prices [-limit N]                    Backfill missing prices from Scryfall
  crafter version                              Print the build version

Common flags:
  -config FILE   Config file path (default ~/.commander-crafter/config.toml)
  -db FILE       Database path (overrides config)
`)
}

// openDB loads config and opens the database, applying flag overrides.
func openDB(cfgPath, dbPath string) (*config.Config, *storage.DB, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	path := cfg.Data.DBPath
	if dbPath != "" {
		path = dbPath
	}
	if path == "" {
		path, err = config.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}

	dbCfg := storage.DefaultConfig(path)
	dbCfg.AutoMigrate = true
	db, err := storage.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// buildEngine loads the catalog and corpus and constructs the engine.
func buildEngine(ctx context.Context, cfg *config.Config, db *storage.DB) (*engine.Engine, error) {
	catalog, err := db.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := db.LoadPairs(ctx)
	if err != nil {
		return nil, err
	}
	return engine.New(catalog, pairs, engine.Options{
		Weights:    cfg.Scoring,
		Thresholds: cfg.Consensus.Thresholds(),
	})
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file path")
	dbPath := fs.String("db", "", "database path")
	creatures := fs.String("creatures", "", "creatures CSV path")
	pairs := fs.String("pairs", "", "pairs CSV path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	creaturesPath := *creatures
	if creaturesPath == "" {
		creaturesPath = cfg.Data.CreaturesCSV
	}
	pairsPath := *pairs
	if pairsPath == "" {
		pairsPath = cfg.Data.PairsCSV
	}
	if creaturesPath == "" && pairsPath == "" {
		return fmt.Errorf("nothing to import: set -creatures and/or -pairs")
	}

	ctx := context.Background()
	if creaturesPath != "" {
		result, err := db.ImportCreaturesCSV(ctx, creaturesPath)
		if err != nil {
			return err
		}
		fmt.Printf("Creatures: %d imported, %d skipped\n", result.Imported, result.Skipped)
	}
	if pairsPath != "" {
		result, err := db.ImportPairsCSV(ctx, pairsPath)
		if err != nil {
			return err
		}
		fmt.Printf("Pairs: %d imported, %d skipped\n", result.Imported, result.Skipped)
	}
	return nil
}

func runRecommend(args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file path")
	dbPath := fs.String("db", "", "database path")
	commander := fs.String("commander", "", "commander name")
	topK := fs.Int("top", 25, "number of recommendations")
	maxPrice := fs.Float64("max-price", 0, "maximum price in USD (0 = no limit)")
	excludeKnown := fs.Bool("exclude-known", false, "drop already-known pairings instead of penalizing")
	csvPath := fs.String("csv", "", "write results as CSV to this file")
	reportPath := fs.String("report", "", "write an HTML score chart to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *commander == "" {
		return fmt.Errorf("-commander is required")
	}

	cfg, db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	ctx := context.Background()
	eng, err := buildEngine(ctx, cfg, db)
	if err != nil {
		return err
	}

	query := engine.Query{TopK: *topK, ExcludeKnown: *excludeKnown}
	if *maxPrice > 0 {
		query.MaxPrice = maxPrice
	}

	recs, err := eng.Recommend(ctx, *commander, query)
	if err != nil {
		return err
	}

	if len(recs) == 0 {
		fmt.Println("No recommendations found.")
		return nil
	}

	fmt.Printf("Top %d recommendations for %s:\n\n", len(recs), *commander)
	for i, rec := range recs {
		known := ""
		if rec.IsKnown {
			known = " (known)"
		}
		fmt.Printf("%3d. %-36s %s  %.4f%s\n", i+1, rec.Name, rec.PowerToughness, rec.Final, known)
		for _, b := range rec.Boosts {
			fmt.Printf("       %s\n", b)
		}
		for _, p := range rec.Penalties {
			fmt.Printf("       %s\n", p)
		}
	}

	if *csvPath != "" {
		if err := writeCSV(*csvPath, recs); err != nil {
			return err
		}
		fmt.Printf("\nWrote %s\n", *csvPath)
	}
	if *reportPath != "" {
		if err := charts.RenderScoreReport(recs, charts.DefaultReportConfig(*commander), *reportPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", *reportPath)
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file path")
	dbPath := fs.String("db", "", "database path")
	commander := fs.String("commander", "", "commander name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *commander == "" {
		return fmt.Errorf("-commander is required")
	}

	cfg, db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	ctx := context.Background()
	eng, err := buildEngine(ctx, cfg, db)
	if err != nil {
		return err
	}

	info, err := eng.Info(*commander)
	if err != nil {
		return err
	}

	fmt.Printf("%s  [%s]\n", info.Name, joinColors(info.ColorIdentity))
	fmt.Printf("Known partners: %d\n", info.PartnerCount)
	if len(info.ConsensusKeywords) > 0 {
		fmt.Println("Consensus keywords:")
		for kw, count := range info.ConsensusKeywords {
			fmt.Printf("  %-16s %d/%d partners\n", kw, count, info.PartnerCount)
		}
	}
	if len(info.ConsensusTypes) > 0 {
		fmt.Println("Consensus types:")
		for t, count := range info.ConsensusTypes {
			fmt.Printf("  %-16s %d/%d partners\n", t, count, info.PartnerCount)
		}
	}
	fmt.Printf("Patterns: high power=%v, low power=%v, high toughness=%v\n",
		info.HighPower, info.LowPower, info.HighToughness)
	return nil
}

func runPrices(args []string) error {
	fs := flag.NewFlagSet("prices", flag.ExitOnError)
	cfgPath := fs.String("config", "", "config file path")
	dbPath := fs.String("db", "", "database path")
	limit := fs.Int("limit", 0, "maximum cards to fetch (0 = config batch limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer closeDB(db)

	batch := *limit
	if batch == 0 {
		batch = cfg.Scryfall.BatchLimit
	}

	ctx := context.Background()
	names, err := db.CardsMissingPrice(ctx, batch)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No cards missing prices.")
		return nil
	}

	opts := []scryfall.Option{}
	if cfg.Scryfall.RequestInterval != "" {
		interval, err := time.ParseDuration(cfg.Scryfall.RequestInterval)
		if err != nil {
			return fmt.Errorf("invalid scryfall request_interval: %w", err)
		}
		opts = append(opts, scryfall.WithRequestInterval(interval))
	}
	client := scryfall.NewClient(opts...)

	updated := 0
	for _, name := range names {
		card, err := client.GetCardByName(ctx, name)
		if err != nil {
			log.Printf("[Prices] Skipping %q: %v", name, err)
			continue
		}
		price, ok := card.PriceUSD()
		if !ok {
			log.Printf("[Prices] No USD price listed for %q", name)
			continue
		}
		if err := db.UpdatePrice(ctx, name, price); err != nil {
			log.Printf("[Prices] Failed to store price for %q: %v", name, err)
			continue
		}
		updated++
	}

	fmt.Printf("Updated prices for %d of %d cards\n", updated, len(names))
	return nil
}

// writeCSV exports recommendations with their score breakdowns.
func writeCSV(path string, recs []engine.Recommendation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[CSV] Error closing %s: %v", path, err)
		}
	}()

	w := csv.NewWriter(f)
	header := []string{"rank", "creature_name", "power_toughness", "base_similarity", "final_score", "is_known", "boosts", "penalties"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, rec := range recs {
		row := []string{
			strconv.Itoa(i + 1),
			rec.Name,
			rec.PowerToughness,
			strconv.FormatFloat(rec.Base, 'f', 6, 64),
			strconv.FormatFloat(rec.Final, 'f', 6, 64),
			strconv.FormatBool(rec.IsKnown),
			joinStrings(rec.Boosts),
			joinStrings(rec.Penalties),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func joinStrings(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "; "
		}
		out += p
	}
	return out
}

func joinColors(colors []string) string {
	if len(colors) == 0 {
		return "C"
	}
	out := ""
	for _, c := range colors {
		out += c
	}
	return out
}

func closeDB(db *storage.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}
