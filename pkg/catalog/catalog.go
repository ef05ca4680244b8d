package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ItemCategory classifies a catalog item. The category is fixed at
// definition time and is never inferred from other fields.
type ItemCategory string

const (
	CategorySeed       ItemCategory = "seed"
	CategoryFloor      ItemCategory = "floor"
	CategoryDecoration ItemCategory = "decoration"
)

// Item is an immutable placeable item definition.
type Item struct {
	ID        string       `yaml:"id"`
	Name      string       `yaml:"name"`
	Category  ItemCategory `yaml:"category"`
	Price     int64        `yaml:"price"`
	Stages    int64        `yaml:"stages,omitempty"`
	Reward    int64        `yaml:"reward,omitempty"`
	GrowsInto string       `yaml:"growsInto,omitempty"`
}

// GardenTier is a purchasable garden expansion.
type GardenTier struct {
	Index       int64  `yaml:"index"`
	Name        string `yaml:"name"`
	UnlockPrice int64  `yaml:"unlockPrice"`
}

// Catalog is a read-only registry of item definitions and garden tiers.
type Catalog struct {
	items map[string]Item
	tiers map[int64]GardenTier
}

type catalogFile struct {
	Items []Item       `yaml:"items"`
	Tiers []GardenTier `yaml:"tiers"`
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Load parses a catalog from YAML. An empty catalog is an error.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %v", err)
	}

	if len(file.Items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	c := &Catalog{
		items: make(map[string]Item, len(file.Items)),
		tiers: make(map[int64]GardenTier, len(file.Tiers)),
	}
	for _, item := range file.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("catalog item with empty id")
		}
		switch item.Category {
		case CategorySeed, CategoryFloor, CategoryDecoration:
		default:
			return nil, fmt.Errorf("catalog item %s has unknown category %q", item.ID, item.Category)
		}
		if item.Category == CategorySeed && item.Stages < 1 {
			return nil, fmt.Errorf("catalog seed %s must have at least one stage", item.ID)
		}
		if _, ok := c.items[item.ID]; ok {
			return nil, fmt.Errorf("duplicate catalog item %s", item.ID)
		}
		c.items[item.ID] = item
	}
	for _, tier := range file.Tiers {
		if _, ok := c.tiers[tier.Index]; ok {
			return nil, fmt.Errorf("duplicate garden tier %d", tier.Index)
		}
		c.tiers[tier.Index] = tier
	}

	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load(defaultCatalogYAML)
}

// ItemByID looks up an item definition.
func (c *Catalog) ItemByID(id string) (Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// GardenTierByIndex looks up a garden tier.
func (c *Catalog) GardenTierByIndex(index int64) (GardenTier, bool) {
	tier, ok := c.tiers[index]
	return tier, ok
}

// Items returns all item definitions.
func (c *Catalog) Items() []Item {
	items := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	return items
}

// Tiers returns all garden tiers.
func (c *Catalog) Tiers() []GardenTier {
	tiers := make([]GardenTier, 0, len(c.tiers))
	for _, tier := range c.tiers {
		tiers = append(tiers, tier)
	}
	return tiers
}
