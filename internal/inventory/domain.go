// Package inventory tracks stock for supplies consumed by the resort.
package inventory

import "time"

// Category groups inventory items.
type Category string

const (
	CategoryBeverage Category = "เครื่องดื่ม"
	CategoryFood     Category = "อาหาร"
	CategoryRoomUse  Category = "ของใช้ห้องพัก"
	CategoryCleaning Category = "อุปกรณ์ทำความสะอาด"
	CategoryOffice   Category = "อุปกรณ์สำนักงาน"
	CategoryOther    Category = "อื่นๆ"
)

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	switch c {
	case CategoryBeverage, CategoryFood, CategoryRoomUse, CategoryCleaning, CategoryOffice, CategoryOther:
		return true
	}
	return false
}

// Item is one stocked article. Code is caller-chosen and unique.
type Item struct {
	ID            int64
	Code          string
	Name          string
	Category      Category
	Unit          string
	CurrentStock  int
	MinStock      int
	CostPrice     float64
	SellingPrice  float64
	Location      string
	Supplier      string
	Description   string
	Image         string
	IsActive      bool
	ExpiryDate    *time.Time
	LastRestocked *time.Time
	CreatedBy     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LowStock reports whether the item is at or below its reorder threshold.
func (it *Item) LowStock() bool {
	return it.CurrentStock <= it.MinStock
}

// ListFilter narrows item listings.
type ListFilter struct {
	Category   Category
	Search     string
	LowOnly    bool
	ActiveOnly bool
	Page       int
	PerPage    int
}
