// Package seed fills the item store with randomized demo data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"stockroom/internal/core"
	"stockroom/internal/inventory"
)

// DefaultCount is the number of items created when no count is given.
const DefaultCount = 100

// Quantity and price bounds, inclusive. Prices are in cents.
const (
	minQuantity   = 1
	maxQuantity   = 100
	minPriceCents = 1000
	maxPriceCents = 50000
)

// Catalog is the vocabulary random items are drawn from.
type Catalog struct {
	Categories   []string `yaml:"categories"`
	ProductNames []string `yaml:"product_names"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories:   []string{"Electronics", "Clothing", "Home", "Sports", "Toys"},
		ProductNames: []string{"Widget", "Gadget", "Thingamajig", "Doodad", "Contraption"},
	}
}

// LoadCatalog reads a YAML catalog from path. Lists missing from the file
// keep their default values.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	catalog := DefaultCatalog()
	if len(override.Categories) > 0 {
		catalog.Categories = override.Categories
	}
	if len(override.ProductNames) > 0 {
		catalog.ProductNames = override.ProductNames
	}
	return catalog, nil
}

// ItemWriter is the part of inventory.Service the seeder needs.
type ItemWriter interface {
	Reset(ctx context.Context) (int64, error)
	Create(ctx context.Context, in inventory.ItemInput) (*core.Item, error)
}

// Options controls a seeding run.
type Options struct {
	Count   int
	Keep    bool   // keep existing items instead of clearing the store first
	Seed    uint64 // zero picks a time-based seed
	Catalog Catalog
}

// Result summarizes a seeding run.
type Result struct {
	Deleted int64
	Created int
	Skipped int
}

// Run seeds w according to opts. With Keep set, items whose SKU already
// exists are skipped.
func Run(ctx context.Context, w ItemWriter, opts Options) (Result, error) {
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}
	if len(opts.Catalog.Categories) == 0 || len(opts.Catalog.ProductNames) == 0 {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}

	var res Result
	if !opts.Keep {
		n, err := w.Reset(ctx)
		if err != nil {
			return res, err
		}
		res.Deleted = n
		slog.Info("cleared existing items", "count", n)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	for i := 1; i <= opts.Count; i++ {
		in := randomItem(rng, opts.Catalog, i)
		item, err := w.Create(ctx, in)
		if err != nil {
			var apiErr *core.APIError
			if opts.Keep && errors.As(err, &apiErr) && apiErr.Type == core.ErrorTypeConflict {
				slog.Debug("skipping existing item", "sku", in.SKU)
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("create item %s: %w", in.SKU, err)
		}
		slog.Debug("created item", "id", item.ID, "sku", item.SKU)
		res.Created++
	}

	slog.Info("seeded items", "created", res.Created, "skipped", res.Skipped, "seed", opts.Seed)
	return res, nil
}

func randomItem(rng *rand.Rand, catalog Catalog, i int) inventory.ItemInput {
	sku := fmt.Sprintf("SKU%03d", i)
	quantity := minQuantity + rng.IntN(maxQuantity-minQuantity+1)
	price := core.Money{Decimal: decimal.New(int64(minPriceCents+rng.IntN(maxPriceCents-minPriceCents+1)), -2)}

	return inventory.ItemInput{
		ProductName: fmt.Sprintf("%s %d", catalog.ProductNames[rng.IntN(len(catalog.ProductNames))], i),
		SKU:         sku,
		Quantity:    &quantity,
		Price:       &price,
		Category:    catalog.Categories[rng.IntN(len(catalog.Categories))],
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/400/200", sku),
	}
}
