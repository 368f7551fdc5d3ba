package models

import "time"

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusCompleted InvoiceStatus = "COMPLETED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is a sale header. TotalAmount equals the sum of the items'
// TotalPrice once the creating transaction has committed.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Date        time.Time     `gorm:"not null;index" json:"date"`
	Status      InvoiceStatus `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	TotalAmount int64         `gorm:"not null;default:0" json:"total_amount"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// IsPending returns true while the invoice has not been completed.
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusPending
}

// ItemsTotal sums the line totals of the loaded items.
func (i *Invoice) ItemsTotal() int64 {
	var total int64
	for _, item := range i.Items {
		total += item.TotalPrice
	}
	return total
}

// InvoiceItem is one line of an invoice. UnitPrice is the product price at
// the time of sale.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	ProductID uint     `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`

	Quantity   int64 `gorm:"not null" json:"quantity"`
	UnitPrice  int64 `gorm:"not null" json:"unit_price"`
	TotalPrice int64 `gorm:"not null" json:"total_price"`
}

// LineTotal returns quantity times unit price.
func (item *InvoiceItem) LineTotal() int64 {
	return item.Quantity * item.UnitPrice
}

// Customer is an optional party on an invoice.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Phone     string    `gorm:"size:50;index" json:"phone,omitempty"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
}
