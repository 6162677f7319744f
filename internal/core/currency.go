// Package core provides the domain types for the planner: the currency
// registry, historical runs, spending events and per-currency income
// configuration.
package core

type CurrencyID string

const (
	Gold    CurrencyID = "gold"
	Gems    CurrencyID = "gems"
	Essence CurrencyID = "essence"
	Stones  CurrencyID = "stones"
)

// Currency describes one entry of the closed currency set. The set is fixed
// at compile time; nothing creates or removes currencies at runtime.
type Currency struct {
	ID     CurrencyID
	Name   string
	Abbrev string
	Color  string

	// Derivable currencies get their weekly income and growth rate computed
	// from the run log; the others are manual entry only.
	Derivable bool

	// HasBreakdown marks currencies with no single income field on a run.
	// Their derivation sums every field listed in RunFields.
	HasBreakdown bool

	// RunFields names the run fields summed when deriving income.
	RunFields []string
}

// currencyOrder fixes the display and iteration order everywhere.
var currencyOrder = []CurrencyID{Gold, Gems, Essence, Stones}

var currencies = map[CurrencyID]Currency{
	Gold: {
		ID:        Gold,
		Name:      "Gold",
		Abbrev:    "G",
		Color:     "amber",
		Derivable: true,
		RunFields: []string{"gold"},
	},
	Gems: {
		ID:     Gems,
		Name:   "Gems",
		Abbrev: "GM",
		Color:  "violet",
	},
	Essence: {
		ID:        Essence,
		Name:      "Essence",
		Abbrev:    "E",
		Color:     "teal",
		Derivable: true,
		RunFields: []string{"essence"},
	},
	Stones: {
		ID:           Stones,
		Name:         "Stones",
		Abbrev:       "S",
		Color:        "slate",
		Derivable:    true,
		HasBreakdown: true,
		RunFields:    []string{"stones_combined", "stones_raw"},
	},
}

// GetCurrency returns the registry entry for id.
func GetCurrency(id CurrencyID) (Currency, bool) {
	c, ok := currencies[id]
	return c, ok
}

// IsDerivable reports whether the currency's income and growth can be
// computed from the run log. Unknown currencies are not derivable.
func IsDerivable(id CurrencyID) bool {
	c, ok := currencies[id]
	return ok && c.Derivable
}

// AllCurrencies returns every registry entry in display order.
func AllCurrencies() []Currency {
	out := make([]Currency, 0, len(currencyOrder))
	for _, id := range currencyOrder {
		out = append(out, currencies[id])
	}
	return out
}

// EnabledInOrder filters the registry down to the given set, preserving
// display order and dropping unknown identifiers.
func EnabledInOrder(ids []CurrencyID) []Currency {
	enabled := make(map[CurrencyID]bool, len(ids))
	for _, id := range ids {
		enabled[id] = true
	}
	out := make([]Currency, 0, len(ids))
	for _, id := range currencyOrder {
		if enabled[id] {
			out = append(out, currencies[id])
		}
	}
	return out
}
