package entities

import (
	"github.com/shopspring/decimal"
)

// PlaceholderText is shown in place of blank optional fields.
const PlaceholderText = "Không có"

type Book struct {
	ID              uint            `gorm:"column:book_id;primaryKey" json:"book_id"`
	Code            string          `gorm:"column:book_code;uniqueIndex;size:50;not null" json:"book_code"`
	Title           string          `gorm:"index;size:255;not null" json:"title"`
	Author          string          `gorm:"size:255" json:"author"`
	Publisher       string          `gorm:"index;size:255" json:"publisher"`
	PublishYear     int             `json:"publish_year"`
	QuantityInStock int             `gorm:"not null;default:0" json:"quantity_in_stock"`
	Price           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
}

func (Book) TableName() string {
	return "books"
}

type Customer struct {
	ID          uint   `gorm:"column:customer_id;primaryKey" json:"customer_id"`
	Code        string `gorm:"column:customer_code;uniqueIndex;size:50;not null" json:"customer_code"`
	FullName    string `gorm:"index;size:255;not null" json:"full_name"`
	Address     string `gorm:"size:512" json:"address"`
	PhoneNumber string `gorm:"size:32" json:"phone_number"`
}

func (Customer) TableName() string {
	return "customers"
}

// OrDefault returns s, or the placeholder when s is blank.
func OrDefault(s string) string {
	if s == "" {
		return PlaceholderText
	}
	return s
}
