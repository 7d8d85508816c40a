package dataset

import (
	"time"

	"github.com/SurajNatekar28/token-trading-table/internal/domain"
)

// Views is an immutable snapshot of the three category windows published
// by the controller.
type Views struct {
	Chain        domain.Chain   `json:"chain"`
	New          []domain.Token `json:"new"`
	FinalStretch []domain.Token `json:"final_stretch"`
	Migrated     []domain.Token `json:"migrated"`

	Loading   bool      `json:"loading"` // chain switch in progress
	Pending   bool      `json:"pending"` // a filter edit is not yet applied
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
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

// Criteria is the committed filter and sort state.
type Criteria struct {
	Filter  domain.FilterCriteria `json:"filter"`
	Sorts   domain.SortSpecs      `json:"sorts"`
	Pending bool                  `json:"pending"`
}
