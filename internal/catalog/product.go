package catalog

import "strings"

const (
	LangAR = "ar"
	LangEN = "en"

	DefaultLang = LangAR
)

// Localized is a text in the storefront's two languages.
type Localized struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

// In returns the text for lang. English falls back to Arabic when missing.
func (l Localized) In(lang string) string {
	if strings.EqualFold(lang, LangEN) && l.EN != "" {
		return l.EN
	}
	return l.AR
}

func (l Localized) containsFold(needle string) bool {
	return strings.Contains(strings.ToLower(l.AR), needle) ||
		strings.Contains(strings.ToLower(l.EN), needle)
}

type Size struct {
	ID    int       `json:"id"`
	Name  Localized `json:"name"`
	Price float64   `json:"price"`
}

type Feature struct {
	ID   int       `json:"id"`
	Name Localized `json:"name"`
}

type Product struct {
	ID           int       `json:"id"`
	Name         Localized `json:"name"`
	Description  Localized `json:"description"`
	Price        float64   `json:"price"`
	OldPrice     *float64  `json:"old_price,omitempty"`
	Discount     int       `json:"discount"`
	Image        string    `json:"image"`
	Category     string    `json:"category"`
	Rating       float64   `json:"rating"`
	ReviewsCount int       `json:"reviews_count"`
	Sizes        []Size    `json:"sizes"`
	Features     []Feature `json:"features"`
	Images       []string  `json:"images"`
}

// Size looks up a size variant. sizeID 0 selects the first (default) size.
func (p Product) Size(sizeID int) (Size, bool) {
	if len(p.Sizes) == 0 {
		return Size{}, false
	}
	if sizeID == 0 {
		return p.Sizes[0], true
	}
	for _, s := range p.Sizes {
		if s.ID == sizeID {
			return s, true
		}
	}
	return Size{}, false
}

// PrimaryImage is the first gallery image, or the listing image when the gallery is empty.
func (p Product) PrimaryImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}

func price(v float64) *float64 { return &v }

// SeedProducts returns the launch catalog, ordered by id.
func SeedProducts() []Product {
	return []Product{
		{
			ID:           1,
			Name:         Localized{AR: "مياه معدنية - عبوة كبيرة", EN: "Mineral Water - Large Bottle"},
			Description:  Localized{AR: "مياه معدنية نقية، عبوة 18 لتر مناسبة للاستخدام المنزلي", EN: "Pure mineral water, 18-liter bottle suitable for home use"},
			Price:        1.5,
			OldPrice:     price(1.8),
			Discount:     16,
			Image:        "/images/water-large.jpg",
			Category:     "water",
			Rating:       4.8,
			ReviewsCount: 124,
			Sizes: []Size{
				{ID: 1, Name: Localized{AR: "18 لتر", EN: "18 Liters"}, Price: 1.5},
				{ID: 2, Name: Localized{AR: "12 لتر", EN: "12 Liters"}, Price: 1.2},
			},
			Features: []Feature{
				{ID: 1, Name: Localized{AR: "مصفاة 100%", EN: "100% Filtered"}},
				{ID: 2, Name: Localized{AR: "معادن طبيعية", EN: "Natural Minerals"}},
			},
			Images: []string{"/images/water-large-1.jpg", "/images/water-large-2.jpg"},
		},
		{
			ID:           2,
			Name:         Localized{AR: "مياه معدنية - عبوة صغيرة (كرتون)", EN: "Mineral Water - Small Bottles (Carton)"},
			Description:  Localized{AR: "كرتون مياه معدنية، 24 عبوة × 330 مل", EN: "Carton of mineral water, 24 bottles × 330 ml"},
			Price:        3.2,
			Image:        "/images/water-small.jpg",
			Category:     "water",
			Rating:       4.6,
			ReviewsCount: 89,
			Sizes: []Size{
				{ID: 1, Name: Localized{AR: "24 عبوة", EN: "24 Bottles"}, Price: 3.2},
				{ID: 2, Name: Localized{AR: "12 عبوة", EN: "12 Bottles"}, Price: 1.8},
			},
			Features: []Feature{
				{ID: 1, Name: Localized{AR: "سهلة الحمل", EN: "Easy to Carry"}},
				{ID: 2, Name: Localized{AR: "مثالية للرحلات", EN: "Perfect for Trips"}},
			},
			Images: []string{"/images/water-small-1.jpg", "/images/water-small-2.jpg"},
		},
		{
			ID:           3,
			Name:         Localized{AR: "اسطوانة غاز منزلية كبيرة", EN: "Large Home Gas Cylinder"},
			Description:  Localized{AR: "اسطوانة غاز منزلية كبيرة سعة 22 كجم", EN: "Large home gas cylinder, 22 kg capacity"},
			Price:        8.5,
			OldPrice:     price(9.5),
			Discount:     10,
			Image:        "/images/gas-large.jpg",
			Category:     "gas",
			Rating:       4.9,
			ReviewsCount: 156,
			Sizes: []Size{
				{ID: 1, Name: Localized{AR: "22 كجم", EN: "22 kg"}, Price: 8.5},
			},
			Features: []Feature{
				{ID: 1, Name: Localized{AR: "مناسبة للمطابخ الكبيرة", EN: "Suitable for Large Kitchens"}},
				{ID: 2, Name: Localized{AR: "تدوم لفترة طويلة", EN: "Long-lasting"}},
			},
			Images: []string{"/images/gas-large-1.jpg", "/images/gas-large-2.jpg"},
		},
		{
			ID:           4,
			Name:         Localized{AR: "اسطوانة غاز منزلية صغيرة", EN: "Small Home Gas Cylinder"},
			Description:  Localized{AR: "اسطوانة غاز منزلية صغيرة سعة 12 كجم", EN: "Small home gas cylinder, 12 kg capacity"},
			Price:        5.5,
			Image:        "/images/gas-small.jpg",
			Category:     "gas",
			Rating:       4.7,
			ReviewsCount: 102,
			Sizes: []Size{
				{ID: 1, Name: Localized{AR: "12 كجم", EN: "12 kg"}, Price: 5.5},
			},
			Features: []Feature{
				{ID: 1, Name: Localized{AR: "مناسبة للشقق الصغيرة", EN: "Suitable for Small Apartments"}},
				{ID: 2, Name: Localized{AR: "سهلة الحمل", EN: "Easy to Carry"}},
			},
			Images: []string{"/images/gas-small-1.jpg", "/images/gas-small-2.jpg"},
		},
	}
}
