package services

import (
	"time"

	"github.com/mrlokans/bookstore/internal/entities"
	"github.com/mrlokans/bookstore/internal/mirror"
)

// Mirror documents are keyed by the relational id, never by the mirror's own.

func bookKey(id uint) mirror.Document     { return mirror.Document{"book_id": id} }
func customerKey(id uint) mirror.Document { return mirror.Document{"customer_id": id} }
func orderKey(id uint) mirror.Document    { return mirror.Document{"order_id": id} }
func importKey(id uint) mirror.Document   { return mirror.Document{"import_id": id} }

func bookDocument(b *entities.Book) mirror.Document {
	return mirror.Document{
		"book_id":           b.ID,
		"book_code":         b.Code,
		"title":             b.Title,
		"author":            entities.OrDefault(b.Author),
		"publisher":         entities.OrDefault(b.Publisher),
		"publish_year":      b.PublishYear,
		"quantity_in_stock": b.QuantityInStock,
		"price":             b.Price,
	}
}

func customerDocument(c *entities.Customer) mirror.Document {
	return mirror.Document{
		"customer_id":   c.ID,
		"customer_code": c.Code,
		"full_name":     c.FullName,
		"address":       entities.OrDefault(c.Address),
		"phone_number":  entities.OrDefault(c.PhoneNumber),
	}
}

// orderDocument projects an order header and, when loaded, its lines.
func orderDocument(o *entities.Order) mirror.Document {
	doc := mirror.Document{
		"order_id":     o.ID,
		"order_code":   o.Code,
		"customer_id":  o.CustomerID,
		"order_date":   o.OrderDate,
		"order_day":    mirror.DateOf(o.OrderDate.In(time.Local)),
		"total_amount": o.TotalAmount,
		"status":       o.Status,
	}
	if o.Details != nil {
		items := make([]mirror.Document, len(o.Details))
		for i, d := range o.Details {
			items[i] = mirror.Document{
				"book_id":    d.BookID,
				"quantity":   d.Quantity,
				"unit_price": d.UnitPrice,
				"subtotal":   d.Subtotal,
			}
		}
		doc["items"] = items
	}
	return doc
}

func importDocument(b *entities.ImportBatch) mirror.Document {
	doc := mirror.Document{
		"import_id":    b.ID,
		"import_code":  b.Code,
		"import_date":  b.ImportDate,
		"import_day":   mirror.DateOf(b.ImportDate.In(time.Local)),
		"supplier":     entities.OrDefault(b.Supplier),
		"total_amount": b.TotalAmount,
	}
	if b.Details != nil {
		items := make([]mirror.Document, len(b.Details))
		for i, d := range b.Details {
			items[i] = mirror.Document{
				"book_id":    d.BookID,
				"quantity":   d.Quantity,
				"unit_price": d.UnitPrice,
				"subtotal":   d.Subtotal,
			}
		}
		doc["items"] = items
	}
	return doc
}
