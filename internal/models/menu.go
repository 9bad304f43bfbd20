package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MenuItem represents a dish on the menu. The catalog is the single source
// of truth for item identity and price; items are never deleted, only
// marked unavailable.
type MenuItem struct {
	ID          uint            `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"not null;unique_index" json:"name"`
	Category    string          `gorm:"not null" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Available   bool            `gorm:"default:true" json:"available"`
}

// TableName sets the table name for MenuItem
func (MenuItem) TableName() string {
	return "menu_items"
}

// MenuCategory represents the category of a menu item
type MenuCategory string

const (
	CategoryPizza    MenuCategory = "Pizza"
	CategorySalad    MenuCategory = "Salad"
	CategoryBurger   MenuCategory = "Burger"
	CategoryPasta    MenuCategory = "Pasta"
	CategoryBeverage MenuCategory = "Beverage"
	CategoryDessert  MenuCategory = "Dessert"
)

// ValidateMenuItem validates a menu item before it enters the catalog
func ValidateMenuItem(item *MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: menu item name is required", ErrValidation)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: menu item price must not be negative", ErrValidation)
	}
	if strings.TrimSpace(item.Category) == "" {
		return fmt.Errorf("%w: menu item category is required", ErrValidation)
	}
	return nil
}

// IsInCategory checks if the item belongs to a specific category
func (mi *MenuItem) IsInCategory(category MenuCategory) bool {
	return mi.Category == string(category)
}

// SourceText renders the item as the descriptive block handed to the
// semantic index. Price is included so queries like "something cheap"
// have signal to work with.
func (mi *MenuItem) SourceText() string {
	availability := "No"
	if mi.Available {
		availability = "Yes"
	}
	return fmt.Sprintf("Name: %s\nCategory: %s\nPrice: $%s\nDescription: %s\nAvailable: %s",
		mi.Name, mi.Category, mi.Price.StringFixed(2), mi.Description, availability)
}
