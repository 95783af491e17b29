package cart

import (
	"errors"
	"fmt"

	"DeliveryStore/internal/catalog"
)

var ErrUnknownSize = errors.New("unknown size")

// SnapshotItem builds the line to add for product p in the chosen size.
// sizeID 0 picks the product's first size. Name and size name are taken
// in lang; the unit price is the size price, or the product price when the
// size carries none.
func SnapshotItem(p catalog.Product, sizeID, quantity int, lang string) (Item, error) {
	size, ok := p.Size(sizeID)
	if !ok {
		return Item{}, fmt.Errorf("%w: product %d has no size %d", ErrUnknownSize, p.ID, sizeID)
	}

	price := size.Price
	if price == 0 {
		price = p.Price
	}

	it := Item{
		ProductID: p.ID,
		Name:      p.Name.In(lang),
		Price:     price,
		Quantity:  quantity,
		SizeID:    size.ID,
		SizeName:  size.Name.In(lang),
		Image:     p.PrimaryImage(),
	}
	if err := it.Validate(); err != nil {
		return Item{}, err
	}
	return it, nil
}
