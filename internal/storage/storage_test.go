package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory database with migrations applied. A
// single connection keeps every statement on the same in-memory store.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := DefaultConfig(":memory:")
	cfg.MaxOpenConns = 1
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestUpsertAndLoadCatalog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	price := 3.50
	require.NoError(t, db.UpsertCard(ctx, &CardRow{
		Name:           "Grizzled Stalker",
		OracleText:     "Trample. Whenever Grizzled Stalker attacks, it gets +1/+1 until end of turn.",
		ColorIdentity:  "GR",
		Types:          "Beast Hound",
		Keywords:       "Trample; Haste",
		Power:          "4",
		Toughness:      "3",
		PriceUSD:       &price,
		CommanderLegal: true,
	}))
	require.NoError(t, db.UpsertCard(ctx, &CardRow{
		Name:           "Mist Walker",
		OracleText:     "Flying. Mist Walker can block only creatures with flying.",
		ColorIdentity:  "U",
		Types:          "Illusion",
		Keywords:       "Flying",
		Power:          "*",
		Toughness:      "2",
		CommanderLegal: true,
	}))

	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	stalker, ok := catalog.Get("Grizzled Stalker")
	require.True(t, ok)
	assert.Equal(t, []string{"R", "G"}, stalker.ColorIdentity)
	assert.Equal(t, []string{"Beast", "Hound"}, stalker.Types)
	assert.Equal(t, []string{"Trample", "Haste"}, stalker.Keywords)
	assert.Equal(t, 4, stalker.Power.Value)
	require.NotNil(t, stalker.PriceUSD)
	assert.Equal(t, 3.50, *stalker.PriceUSD)

	walker, ok := catalog.Get("Mist Walker")
	require.True(t, ok)
	assert.True(t, walker.Power.Variable)
	assert.Nil(t, walker.PriceUSD)
}

func TestUpsertCardReplaces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	row := &CardRow{
		Name:           "Evolving Shape",
		OracleText:     "This creature enters the battlefield with a +1/+1 counter on it.",
		ColorIdentity:  "G",
		Power:          "1",
		Toughness:      "1",
		CommanderLegal: true,
	}
	require.NoError(t, db.UpsertCard(ctx, row))

	row.Power = "3"
	row.Toughness = "3"
	require.NoError(t, db.UpsertCard(ctx, row))

	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Len())

	card, ok := catalog.Get("Evolving Shape")
	require.True(t, ok)
	assert.Equal(t, 3, card.Power.Value)
}

func TestLoadCatalogSkipsMalformed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertCard(ctx, &CardRow{
		Name:           "Sound Card",
		OracleText:     "Vigilance. This one is perfectly fine and loads without complaint.",
		ColorIdentity:  "W",
		Power:          "2",
		Toughness:      "2",
		CommanderLegal: true,
	}))

	// Bypass upsert validation to simulate pipeline damage.
	_, err := db.Conn().ExecContext(ctx, `
		INSERT INTO cards (name, oracle_text, color_identity, types, keywords, power, toughness, commander_legal, updated_at)
		VALUES ('Broken Card', 'text', 'Q', '', '', 'banana', '2', 1, CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.Len())
	_, ok := catalog.Get("Broken Card")
	assert.False(t, ok)
}

func TestLoadCatalogEmpty(t *testing.T) {
	db := newTestDB(t)
	_, err := db.LoadCatalog(context.Background())
	assert.Error(t, err)
}

func TestUpdatePrice(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertCard(ctx, &CardRow{
		Name:           "Priceless Relic Bearer",
		OracleText:     "When this creature enters the battlefield, create a Treasure token.",
		ColorIdentity:  "R",
		Power:          "2",
		Toughness:      "1",
		CommanderLegal: true,
	}))

	missing, err := db.CardsMissingPrice(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Priceless Relic Bearer"}, missing)

	require.NoError(t, db.UpdatePrice(ctx, "Priceless Relic Bearer", 1.25))

	missing, err = db.CardsMissingPrice(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, missing)

	err = db.UpdatePrice(ctx, "No Such Card", 9.99)
	assert.Error(t, err)
}

func TestUpsertPairAccumulates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertPair(ctx, "Alpha Commander", "Loyal Bear", 2))
	require.NoError(t, db.UpsertPair(ctx, "Alpha Commander", "Loyal Bear", 3))
	require.NoError(t, db.UpsertPair(ctx, "Alpha Commander", "Swift Wolf", 1))

	assert.Error(t, db.UpsertPair(ctx, "Alpha Commander", "Loyal Bear", -1))

	pairs, err := db.LoadPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, pairs.Count("Alpha Commander", "Loyal Bear"))
	assert.Equal(t, []string{"Loyal Bear", "Swift Wolf"}, pairs.Partners("Alpha Commander"))
}

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCreaturesCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeTempCSV(t, "creatures.csv",
		"name,oracle_text,color_identity,types,keywords,power,toughness,price_usd,commander_legal\n"+
			"Hill Giant,A big friendly giant that likes to smash things on occasion.,R,Giant,,3,3,0.25,true\n"+
			"Broken Entry,some text,R,Giant,,not-a-number,3,,true\n"+
			",missing name,R,Giant,,2,2,,true\n"+
			"Shifting Wall,Defender. Shifting Wall enters the battlefield with X +1/+1 counters.,,Wall,Defender,0,X,,true\n")

	result, err := db.ImportCreaturesCSV(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	catalog, err := db.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	wall, ok := catalog.Get("Shifting Wall")
	require.True(t, ok)
	assert.True(t, wall.Toughness.Variable)
	assert.Empty(t, wall.ColorIdentity)
}

func TestImportCreaturesCSVMissingNameColumn(t *testing.T) {
	db := newTestDB(t)
	path := writeTempCSV(t, "bad.csv", "title,power\nSomething,2\n")
	_, err := db.ImportCreaturesCSV(context.Background(), path)
	assert.Error(t, err)
}

func TestImportPairsCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeTempCSV(t, "pairs.csv",
		"commander,recommended_creature,count\n"+
			"Alpha Commander,Loyal Bear,4\n"+
			"Alpha Commander,Swift Wolf,\n"+
			"Alpha Commander,Bad Count,oops\n"+
			",Orphaned Creature,1\n")

	result, err := db.ImportPairsCSV(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	pairs, err := db.LoadPairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, pairs.Count("Alpha Commander", "Loyal Bear"))
	// Missing count defaults to a single observation.
	assert.Equal(t, 1, pairs.Count("Alpha Commander", "Swift Wolf"))
}
