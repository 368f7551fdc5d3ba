package models

import "time"

// Product is a sellable item with a quantity on hand. Price is expressed in
// minor currency units.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `gorm:"size:255;not null;index" json:"name"`
	Price    int64  `gorm:"not null" json:"price"`
	Quantity int64  `gorm:"not null;default:0" json:"quantity"`
	// Barcode is unique and never changes after creation.
	Barcode string `gorm:"size:64;uniqueIndex;not null" json:"barcode"`

	CategoryID *uint     `gorm:"index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
}

// CanFulfil reports whether n units can be taken from stock.
func (p *Product) CanFulfil(n int64) bool {
	return n > 0 && p.Quantity >= n
}

// IsLowStock reports whether the quantity on hand is at or below threshold.
func (p *Product) IsLowStock(threshold int64) bool {
	return p.Quantity <= threshold
}

// Category groups products.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
}

// StockDirection is the sign of a quantity adjustment.
type StockDirection string

const (
	StockIncrease StockDirection = "increase"
	StockDecrease StockDirection = "decrease"
)

func (d StockDirection) Valid() bool {
	return d == StockIncrease || d == StockDecrease
}

// Signed returns delta with the direction's sign applied.
func (d StockDirection) Signed(delta int64) int64 {
	if d == StockDecrease {
		return -delta
	}
	return delta
}

// Stock movement reasons.
const (
	ReasonSale         = "sale"
	ReasonCancellation = "cancellation"
	ReasonManual       = "manual"
)

// StockMovement records a single change of a product's quantity on hand.
// Movements written by one operation share a BatchID.
type StockMovement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	ProductID uint           `gorm:"index;not null" json:"product_id"`
	Direction StockDirection `gorm:"size:10;not null" json:"direction"`
	Delta     int64          `gorm:"not null" json:"delta"`
	Before    int64          `gorm:"column:quantity_before;not null" json:"before"`
	After     int64          `gorm:"column:quantity_after;not null" json:"after"`
	Reason    string         `gorm:"size:50;not null" json:"reason"`
	InvoiceID *uint          `gorm:"index" json:"invoice_id,omitempty"`
	BatchID   string         `gorm:"size:36;index" json:"batch_id,omitempty"`
}
