package inventory

import (
	"context"
	"fmt"
	"time"
)

// Service implements inventory management.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// List returns items matching the filter plus a total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	return s.repo.List(ctx, filter)
}

// Get returns an item by id.
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode returns an item by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Item, error) {
	return s.repo.GetByCode(ctx, code)
}

// Input carries item attributes.
type Input struct {
	Code         string
	Name         string
	Category     Category
	Unit         string
	CurrentStock int
	MinStock     int
	CostPrice    float64
	SellingPrice float64
	Location     string
	Supplier     string
	Description  string
	ExpiryDate   *time.Time
	IsActive     *bool
}

// Create registers a new item.
func (s *Service) Create(ctx context.Context, in Input, createdBy int64) (*Item, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("inventory: unknown category %q", in.Category)
	}
	if in.CurrentStock < 0 {
		return nil, fmt.Errorf("inventory: initial stock cannot be negative")
	}
	unit := in.Unit
	if unit == "" {
		unit = "ชิ้น"
	}
	location := in.Location
	if location == "" {
		location = "คลังหลัก"
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	it := Item{
		Code:         in.Code,
		Name:         in.Name,
		Category:     in.Category,
		Unit:         unit,
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
		Location:     location,
		Supplier:     in.Supplier,
		Description:  in.Description,
		Image:        "default-inventory.jpg",
		IsActive:     active,
		ExpiryDate:   in.ExpiryDate,
		CreatedBy:    createdBy,
	}
	if in.CurrentStock > 0 {
		now := s.now()
		it.LastRestocked = &now
	}
	if err := s.repo.Create(ctx, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

// Update edits an item's descriptive fields. The code and the stock level
// are preserved; stock moves through Receive and Issue.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("inventory: unknown category %q", in.Category)
	}
	it.Name = in.Name
	it.Category = in.Category
	if in.Unit != "" {
		it.Unit = in.Unit
	}
	it.MinStock = in.MinStock
	it.CostPrice = in.CostPrice
	it.SellingPrice = in.SellingPrice
	if in.Location != "" {
		it.Location = in.Location
	}
	it.Supplier = in.Supplier
	it.Description = in.Description
	it.ExpiryDate = in.ExpiryDate
	if in.IsActive != nil {
		it.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SetImage swaps the item photo and returns the previous reference so the
// caller can clean it up.
func (s *Service) SetImage(ctx context.Context, id int64, image string) (string, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	previous := it.Image
	it.Image = image
	if err := s.repo.Update(ctx, it); err != nil {
		return "", err
	}
	return previous, nil
}

// Receive adds stock and stamps last_restocked.
func (s *Service) Receive(ctx context.Context, id int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("inventory: receive quantity must be positive")
	}
	now := s.now()
	return s.repo.Adjust(ctx, id, quantity, &now)
}

// Issue removes stock. The store rejects an issue that would leave a
// negative balance.
func (s *Service) Issue(ctx context.Context, id int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("inventory: issue quantity must be positive")
	}
	return s.repo.Adjust(ctx, id, -quantity, nil)
}

// LowStock returns active items at or below their reorder threshold.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	return s.repo.LowStockItems(ctx)
}
