package cart

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxQuantity caps a single line, including the sum of merged adds.
const MaxQuantity = 999

var ErrInvalidItem = errors.New("invalid cart item")

// Item is one cart line. Name, SizeName, Price and Image are copied from the
// catalog when the line is first added and are not refreshed afterwards.
type Item struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	SizeID    int     `json:"sizeId"`
	SizeName  string  `json:"sizeName"`
	Image     string  `json:"image"`
}

type lineKey struct {
	productID int
	sizeID    int
}

func (it Item) key() lineKey { return lineKey{productID: it.ProductID, sizeID: it.SizeID} }

// Validate checks the fields a line needs to be displayed and priced.
func (it Item) Validate() error {
	switch {
	case it.ProductID <= 0:
		return fmt.Errorf("%w: productId must be positive", ErrInvalidItem)
	case it.SizeID <= 0:
		return fmt.Errorf("%w: sizeId must be positive", ErrInvalidItem)
	case it.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidItem)
	case it.Quantity > MaxQuantity:
		return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidItem, MaxQuantity)
	case it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidItem)
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	return nil
}

// Update holds the fields to overwrite on an existing line; nil fields are kept.
type Update struct {
	ProductID *int     `json:"productId,omitempty"`
	Name      *string  `json:"name,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Quantity  *int     `json:"quantity,omitempty"`
	SizeID    *int     `json:"sizeId,omitempty"`
	SizeName  *string  `json:"sizeName,omitempty"`
	Image     *string  `json:"image,omitempty"`
}

func (u Update) apply(it Item) Item {
	if u.ProductID != nil {
		it.ProductID = *u.ProductID
	}
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.Price != nil {
		it.Price = *u.Price
	}
	if u.Quantity != nil {
		it.Quantity = *u.Quantity
	}
	if u.SizeID != nil {
		it.SizeID = *u.SizeID
	}
	if u.SizeName != nil {
		it.SizeName = *u.SizeName
	}
	if u.Image != nil {
		it.Image = *u.Image
	}
	return it
}

type Summary struct {
	Items     []Item  `json:"items"`
	ItemCount int     `json:"item_count"`
	Total     float64 `json:"total"`
}

func Summarize(items []Item) Summary {
	if items == nil {
		items = []Item{}
	}
	return Summary{Items: items, ItemCount: ItemCount(items), Total: Total(items)}
}

// ItemCount sums line quantities.
func ItemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Total sums price x quantity over the snapshotted prices, rounded to fils
// (three decimals, the dinar's minor unit).
func Total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return math.Round(sum*1000) / 1000
}
