package domain

import "fmt"

// FilterCriteria is the declarative filter applied to the working set.
// Every predicate is independent; all of them must hold for a token to pass.
type FilterCriteria struct {
	Keywords              string   `json:"keywords"`        // comma-separated, any must match
	ExcludeKeywords       string   `json:"excludeKeywords"` // comma-separated, none may match
	DeselectedProtocols   []string `json:"deselectedProtocols"`
	DeselectedQuoteTokens []string `json:"deselectedQuoteTokens"`

	// nil means unconstrained
	MinLiquidity *float64 `json:"minLiquidity"`
	MaxLiquidity *float64 `json:"maxLiquidity"`
	MinVolume    *float64 `json:"minVolume"`
	MaxVolume    *float64 `json:"maxVolume"`
}

// Clone returns a deep copy so a committed snapshot cannot be changed by
// later edits to the source.
func (c FilterCriteria) Clone() FilterCriteria {
	out := c
	out.DeselectedProtocols = append([]string(nil), c.DeselectedProtocols...)
	out.DeselectedQuoteTokens = append([]string(nil), c.DeselectedQuoteTokens...)
	out.MinLiquidity = cloneFloat(c.MinLiquidity)
	out.MaxLiquidity = cloneFloat(c.MaxLiquidity)
	out.MinVolume = cloneFloat(c.MinVolume)
	out.MaxVolume = cloneFloat(c.MaxVolume)
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// SortField names the key a category is ordered by. The zero value means
// no explicit sort (arrival order).
type SortField string

const (
	SortNone      SortField = ""
	SortMarketCap SortField = "marketCap"
	SortVolume    SortField = "volume"
	SortLiquidity SortField = "liquidity"
	SortTime      SortField = "time"
	SortPrice     SortField = "price"
	SortHolders   SortField = "holders"
)

// IsValid checks if the field is a known sort key (or none).
func (f SortField) IsValid() bool {
	switch f {
	case SortNone, SortMarketCap, SortVolume, SortLiquidity, SortTime, SortPrice, SortHolders:
		return true
	}
	return false
}

// Direction is the sort direction.
type Direction string

const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

// SortSpec is the sort selection for one category.
type SortSpec struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// Validate checks field and direction. An empty direction is accepted and
// treated as descending.
func (s SortSpec) Validate() error {
	if !s.Field.IsValid() {
		return fmt.Errorf("%w: field %q", ErrInvalidSort, s.Field)
	}
	if s.Direction != "" && s.Direction != Asc && s.Direction != Desc {
		return fmt.Errorf("%w: direction %q", ErrInvalidSort, s.Direction)
	}
	return nil
}

// SortSpecs holds an independent sort selection per category.
type SortSpecs map[Category]SortSpec

// DefaultSortSpecs returns unsorted, descending specs for every category.
func DefaultSortSpecs() SortSpecs {
	specs := make(SortSpecs, len(Categories))
	for _, c := range Categories {
		specs[c] = SortSpec{Field: SortNone, Direction: Desc}
	}
	return specs
}

// Clone returns a copy of the specs.
func (s SortSpecs) Clone() SortSpecs {
	out := make(SortSpecs, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
