package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/username/sixex/backend/src/models"
)

// ErrUnknownSymbol is returned when a requested symbol is not present in
// the catalog.
var ErrUnknownSymbol = errors.New("unknown stock symbol")

// Catalog is the static price table the whole server prices against. It is
// built once at startup and never mutated afterwards, so it is safe to read
// from concurrent handlers without locking.
type Catalog struct {
	instruments []models.Instrument
	bySymbol    map[string]models.Instrument
}

// defaultInstruments is the built-in mock table, used when no catalog file
// is configured.
var defaultInstruments = []models.Instrument{
	{Symbol: "NFLX", Name: "Netflix Inc.", Price: 487.23, Change: 12.45, ChangePercent: 2.62},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Price: 174.82, Change: -2.18, ChangePercent: -1.23},
	{Symbol: "TSLA", Name: "Tesla Inc.", Price: 248.95, Change: 8.73, ChangePercent: 3.63},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Price: 186.71, Change: 5.12, ChangePercent: 2.82},
	{Symbol: "META", Name: "Meta Platforms Inc.", Price: 528.14, Change: -7.25, ChangePercent: -1.35},
	{Symbol: "CRM", Name: "Salesforce Inc.", Price: 312.45, Change: 4.67, ChangePercent: 1.52},
	{Symbol: "MNST", Name: "Monster Beverage Corp.", Price: 52.89, Change: 1.23, ChangePercent: 2.38},
	{Symbol: "CMG", Name: "Chipotle Mexican Grill", Price: 3247.12, Change: 45.78, ChangePercent: 1.43},
	{Symbol: "BIIB", Name: "Biogen Inc.", Price: 155.67, Change: -3.21, ChangePercent: -2.02},
	{Symbol: "BRK.B", Name: "Berkshire Hathaway Inc.", Price: 459.23, Change: 2.45, ChangePercent: 0.54},
}

// NewCatalog builds a catalog from the given instruments. Symbols are
// canonicalized to uppercase; a later duplicate of an already-seen symbol
// is ignored so insertion order stays deterministic.
func NewCatalog(instruments []models.Instrument) *Catalog {
	c := &Catalog{
		bySymbol: make(map[string]models.Instrument, len(instruments)),
	}
	for _, inst := range instruments {
		inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if inst.Symbol == "" {
			continue
		}
		if _, exists := c.bySymbol[inst.Symbol]; exists {
			continue
		}
		c.bySymbol[inst.Symbol] = inst
		c.instruments = append(c.instruments, inst)
	}
	return c
}

// Default returns a catalog backed by the built-in mock table.
func Default() *Catalog {
	return NewCatalog(defaultInstruments)
}

// Load reads a catalog from a JSON file (an array of instruments). An empty
// path yields the built-in table.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stock catalog file %s: %w", path, err)
	}
	var instruments []models.Instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("parsing stock catalog file %s: %w", path, err)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("stock catalog file %s contains no instruments", path)
	}
	return NewCatalog(instruments), nil
}

// Lookup resolves a symbol (case-insensitive) to its instrument.
func (c *Catalog) Lookup(symbol string) (models.Instrument, error) {
	canonical := strings.ToUpper(strings.TrimSpace(symbol))
	inst, ok := c.bySymbol[canonical]
	if !ok {
		return models.Instrument{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, canonical)
	}
	return inst, nil
}

// List returns all instruments in insertion order. The returned slice is a
// copy; callers may not mutate catalog state through it.
func (c *Catalog) List() []models.Instrument {
	out := make([]models.Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Len reports how many instruments the catalog holds.
func (c *Catalog) Len() int {
	return len(c.instruments)
}
