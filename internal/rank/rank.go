// Package rank orders filtered tokens per category and cuts them down to
// the display window.
package rank

import (
	"cmp"
	"slices"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
	"github.com/SurajNatekar28/token-trading-table/internal/filter"
)

// DefaultCapacity is the number of tokens a category window shows.
const DefaultCapacity = 12

// RankAndWindow orders tokens by spec and truncates to capacity.
//
// With no sort field the input order is kept. Otherwise tokens are stably
// sorted descending by the field and the whole result is reversed for
// ascending, so ties appear in reverse input order when ascending.
func RankAndWindow(tokens []domain.Token, spec domain.SortSpec, capacity int) []domain.Token {
	if capacity < 0 {
		capacity = 0
	}

	sorted := make([]domain.Token, len(tokens))
	copy(sorted, tokens)

	cmpFn := comparator(spec.Field)
	if cmpFn == nil {
		return sorted[:min(len(sorted), capacity)]
	}

	slices.SortStableFunc(sorted, cmpFn)
	if spec.Direction == domain.Asc {
		slices.Reverse(sorted)
	}

	return sorted[:min(len(sorted), capacity)]
}

// comparator returns a descending comparator for field, nil for none.
func comparator(field domain.SortField) func(a, b domain.Token) int {
	switch field {
	case domain.SortMarketCap:
		return func(a, b domain.Token) int { return cmp.Compare(b.MarketCap, a.MarketCap) }
	case domain.SortVolume:
		return func(a, b domain.Token) int { return cmp.Compare(b.Volume24h, a.Volume24h) }
	case domain.SortLiquidity:
		return func(a, b domain.Token) int { return cmp.Compare(b.Liquidity, a.Liquidity) }
	case domain.SortTime:
		return func(a, b domain.Token) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case domain.SortPrice:
		return func(a, b domain.Token) int { return cmp.Compare(b.Price, a.Price) }
	case domain.SortHolders:
		return func(a, b domain.Token) int { return cmp.Compare(b.Holders, a.Holders) }
	}
	return nil
}

// Views are the three capped, ordered category windows.
type Views struct {
	New          []domain.Token `json:"new"`
	FinalStretch []domain.Token `json:"final_stretch"`
	Migrated     []domain.Token `json:"migrated"`
}

// Category returns the window for c.
func (v *Views) Category(c domain.Category) []domain.Token {
	switch c {
	case domain.CategoryNew:
		return v.New
	case domain.CategoryFinalStretch:
		return v.FinalStretch
	case domain.CategoryMigrated:
		return v.Migrated
	}
	return nil
}

// Partition splits tokens by category, keeping relative order.
func Partition(tokens []domain.Token) map[domain.Category][]domain.Token {
	out := make(map[domain.Category][]domain.Token, len(domain.Categories))
	for _, t := range tokens {
		out[t.Category] = append(out[t.Category], t)
	}
	return out
}

// BuildViews filters the working set once, then ranks and windows each
// category with its own sort spec.
func BuildViews(tokens []domain.Token, criteria domain.FilterCriteria, sorts domain.SortSpecs, capacity int) Views {
	parts := Partition(filter.Filter(tokens, criteria))

	return Views{
		New:          RankAndWindow(parts[domain.CategoryNew], sorts[domain.CategoryNew], capacity),
		FinalStretch: RankAndWindow(parts[domain.CategoryFinalStretch], sorts[domain.CategoryFinalStretch], capacity),
		Migrated:     RankAndWindow(parts[domain.CategoryMigrated], sorts[domain.CategoryMigrated], capacity),
	}
}
