package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing" // not produced by current workflows
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled" // not produced by current workflows
)

type Order struct {
	ID          uint            `gorm:"column:order_id;primaryKey" json:"order_id"`
	Code        string          `gorm:"column:order_code;uniqueIndex;size:50;not null" json:"order_code"`
	CustomerID  uint            `gorm:"index" json:"customer_id"`
	OrderDate   time.Time       `gorm:"index;not null" json:"order_date"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_amount"`
	Status      OrderStatus     `gorm:"index;size:20;not null;default:Pending" json:"status"`
	Details     []OrderDetail   `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderDetail is one line item of an order. Subtotal is stored, not recomputed.
type OrderDetail struct {
	ID        uint            `gorm:"column:order_detail_id;primaryKey" json:"order_detail_id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	BookID    uint            `gorm:"index;not null" json:"book_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
}

func (OrderDetail) TableName() string {
	return "order_details"
}

// ImportBatch is a delivery of stock from a supplier. TotalAmount is a running
// sum of the subtotals added so far.
type ImportBatch struct {
	ID          uint            `gorm:"column:import_id;primaryKey" json:"import_id"`
	Code        string          `gorm:"column:import_code;uniqueIndex;size:50;not null" json:"import_code"`
	ImportDate  time.Time       `gorm:"index;not null" json:"import_date"`
	Supplier    string          `gorm:"size:255" json:"supplier"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total_amount"`
	Details     []ImportDetail  `gorm:"foreignKey:ImportID" json:"items,omitempty"`
}

func (ImportBatch) TableName() string {
	return "import_books"
}

type ImportDetail struct {
	ID        uint            `gorm:"column:import_detail_id;primaryKey" json:"import_detail_id"`
	ImportID  uint            `gorm:"index;not null" json:"import_id"`
	BookID    uint            `gorm:"index;not null" json:"book_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
}

func (ImportDetail) TableName() string {
	return "import_details"
}

// LineSubtotal is quantity × unit price.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
