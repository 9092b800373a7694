package domain

import "time"

// DocumentType tags downloadable product documents.
type DocumentType string

const (
	DocumentTypeManual    DocumentType = "MANUAL"
	DocumentTypeDatasheet DocumentType = "DATASHEET"
	DocumentTypeWarranty  DocumentType = "WARRANTY"
	DocumentTypeOther     DocumentType = "OTHER"
)

// ProductDocument is a typed downloadable attachment on a product.
type ProductDocument struct {
	Type DocumentType `json:"type"`
	Name string       `json:"name"`
	URL  string       `json:"url"`
}

// Product is a catalog item. Monetary amounts are integer cents.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Subcategory string
	Brand       string

	PriceCents     int64
	SalePriceCents *int64
	SaleStartsAt   *time.Time
	SaleEndsAt     *time.Time

	Stock             int
	LowStockThreshold int

	ImageURL  string
	Documents []ProductDocument

	Rating     float64
	ViewCount  int64
	SalesCount int64

	IsActive   bool
	IsFeatured bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePriceCents returns the sale price while the sale window is
// open, otherwise the regular price.
func (p *Product) EffectivePriceCents(now time.Time) int64 {
	if p.SalePriceCents == nil {
		return p.PriceCents
	}
	if p.SaleStartsAt != nil && now.Before(*p.SaleStartsAt) {
		return p.PriceCents
	}
	if p.SaleEndsAt != nil && now.After(*p.SaleEndsAt) {
		return p.PriceCents
	}
	return *p.SalePriceCents
}

// LowStock reports whether stock has fallen to the alert threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
