package models

import "time"

// ProductStatus is the visibility state of a listing.
type ProductStatus string

const (
	ProductActive  ProductStatus = "active"
	ProductSold    ProductStatus = "sold"
	ProductRemoved ProductStatus = "removed"
)

// Product is the read-mostly listing reference. The core only ever removes it.
type Product struct {
	ID        string        `gorm:"primaryKey" json:"id" bson:"_id"`
	SellerID  string        `gorm:"not null;index" json:"seller_id" bson:"seller_id"`
	Title     string        `json:"title" bson:"title"`
	Status    ProductStatus `gorm:"type:text;not null;default:'active'" json:"status" bson:"status"`
	IsActive  bool          `gorm:"not null" json:"is_active" bson:"is_active"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// Summary returns the listing data shown next to a conversation.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Title: p.Title, Status: p.Status}
}

// ProductSummary is the listing part of a conversation view.
type ProductSummary struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status ProductStatus `json:"status"`
}
