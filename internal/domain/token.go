package domain

import (
	"fmt"
	"time"
)

// PriceFloor is the smallest price a token can carry. Generation and
// mutation clamp to it so price stays strictly positive.
const PriceFloor = 0.000001

// BadgeCount is the number of badges every token carries.
const BadgeCount = 5

// MaxBadgeValue is the inclusive upper bound of a badge value.
const MaxBadgeValue = 90

// Category is the lifecycle bucket a token is generated into.
type Category string

const (
	CategoryNew          Category = "new"
	CategoryFinalStretch Category = "final_stretch"
	CategoryMigrated     Category = "migrated"
)

// Categories lists the categories in display order.
var Categories = []Category{CategoryNew, CategoryFinalStretch, CategoryMigrated}

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is a valid value.
func (c Category) IsValid() bool {
	return c == CategoryNew || c == CategoryFinalStretch || c == CategoryMigrated
}

// ParseCategory parses a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// BadgeColor is the color of a badge.
type BadgeColor string

const (
	BadgeGreen BadgeColor = "green"
	BadgeRed   BadgeColor = "red"
)

// Toggle returns the opposite color.
func (c BadgeColor) Toggle() BadgeColor {
	if c == BadgeRed {
		return BadgeGreen
	}
	return BadgeRed
}

// Badge is a small percentage indicator shown next to a token.
type Badge struct {
	Value int        `json:"value"` // 0..90
	Color BadgeColor `json:"color"`
}

// Token is a tradable token shown in the pulse feed.
type Token struct {
	// Identity
	ID    string `json:"id"`    // chain-scoped, e.g. "sol-12"
	Chain Chain  `json:"chain"` // namespace the id belongs to

	// Descriptive
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	ContractID string `json:"contractId"`
	LogoURL    string `json:"logoUrl"`
	Protocol   string `json:"protocol"`
	QuoteToken string `json:"quoteToken"`
	Audit      string `json:"audit"`

	// Volatile
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"priceChange24h"` // percent
	Volume24h      float64 `json:"volume24h"`
	MarketCap      float64 `json:"marketCap"`
	Liquidity      float64 `json:"liquidity"`
	Holders        int     `json:"holders"`
	Txns           int     `json:"txns"`
	UserCount      int     `json:"userCount"`
	ChartCount     int     `json:"chartCount"`

	Category  Category          `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	Badges    [BadgeCount]Badge `json:"badges"`
}

// Age returns how long ago the token was created relative to now.
func (t *Token) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// MarketUpdate is an out-of-band partial price update for one token.
// Applying it only touches Price and PriceChange24h.
type MarketUpdate struct {
	TokenID        string  `json:"tokenId"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"priceChange24h"`
}
