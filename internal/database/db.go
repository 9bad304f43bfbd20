package database

import (
	"fmt"
	"time"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"
)

var db *gorm.DB

// InitDB initializes the database connection
func InitDB(dbPath string) error {
	var err error
	db, err = gorm.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.DB().SetConnMaxLifetime(time.Hour)

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// Migrate creates and updates all required tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MenuItem{},
		&models.Order{},
		&models.OrderLine{},
	).Error
}

// SeedMenu populates the menu table with the house menu when it is empty.
func SeedMenu(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, item := range defaultMenu() {
		if err := models.ValidateMenuItem(&item); err != nil {
			return err
		}
		if err := db.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to seed menu item %q: %w", item.Name, err)
		}
	}
	return nil
}

func defaultMenu() []models.MenuItem {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return []models.MenuItem{
		{Name: "Margherita Pizza", Category: "Pizza", Price: price("12.99"), Description: "Classic pizza with tomato sauce, mozzarella, and basil", Available: true},
		{Name: "Pepperoni Pizza", Category: "Pizza", Price: price("15.99"), Description: "Pizza topped with pepperoni and mozzarella cheese", Available: true},
		{Name: "Caesar Salad", Category: "Salad", Price: price("8.99"), Description: "Romaine lettuce with Caesar dressing and croutons", Available: true},
		{Name: "Chicken Burger", Category: "Burger", Price: price("13.99"), Description: "Grilled chicken breast with lettuce and tomato", Available: true},
		{Name: "Beef Burger", Category: "Burger", Price: price("16.99"), Description: "Juicy beef patty with cheese, lettuce, and tomato", Available: true},
		{Name: "Pasta Carbonara", Category: "Pasta", Price: price("14.99"), Description: "Creamy pasta with bacon and parmesan cheese", Available: true},
		{Name: "Coca Cola", Category: "Beverage", Price: price("2.99"), Description: "Refreshing cola drink", Available: true},
		{Name: "Orange Juice", Category: "Beverage", Price: price("3.99"), Description: "Fresh squeezed orange juice", Available: true},
		{Name: "Chocolate Cake", Category: "Dessert", Price: price("6.99"), Description: "Rich chocolate cake with frosting", Available: true},
		{Name: "Ice Cream", Category: "Dessert", Price: price("4.99"), Description: "Vanilla ice cream with chocolate chips", Available: true},
	}
}
