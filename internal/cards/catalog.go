package cards

import (
	"fmt"
	"log"
)

// Catalog is an immutable index of all known creatures.
// Construct once at load time and share read-only across queries.
type Catalog struct {
	byName map[string]*Card
	names  []string
}

// NewCatalog builds a catalog from validated cards. Cards that fail
// validation are skipped with a logged warning; duplicate names keep
// the first occurrence. An empty result is a load error.
func NewCatalog(list []*Card) (*Catalog, error) {
	byName := make(map[string]*Card, len(list))
	for _, card := range list {
		if card == nil {
			continue
		}
		if err := card.Validate(); err != nil {
			log.Printf("[Catalog] Skipping invalid card: %v", err)
			continue
		}
		if _, exists := byName[card.Name]; exists {
			log.Printf("[Catalog] Skipping duplicate card %q", card.Name)
			continue
		}
		byName[card.Name] = card
	}

	if len(byName) == 0 {
		return nil, fmt.Errorf("catalog is empty: no valid cards loaded")
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	SortNames(names)

	return &Catalog{byName: byName, names: names}, nil
}

// Get returns the card with the given name.
func (c *Catalog) Get(name string) (*Card, bool) {
	card, ok := c.byName[name]
	return card, ok
}

// Names returns all card names in lexicographic order. Callers must not
// modify the returned slice.
func (c *Catalog) Names() []string {
	return c.names
}

// Len returns the number of cards in the catalog.
func (c *Catalog) Len() int {
	return len(c.byName)
}
