// Package catalog holds the authoritative view of orderable items. It keeps
// an immutable in-memory snapshot of the menu table so extraction reads are
// cheap and never observe a half-applied mutation.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Catalog is the single source of truth for item identity, price, and
// availability. Reads are served from a snapshot that is swapped atomically
// on reload; writers go through the database and republish.
type Catalog struct {
	db *gorm.DB

	mu   sync.RWMutex
	snap *snapshot
}

// snapshot is an immutable view of the menu table, ordered by ascending id.
type snapshot struct {
	items []models.MenuItem
	byID  map[uint]models.MenuItem
}

// New builds a catalog over the given database and loads the first snapshot.
func New(db *gorm.DB) (*Catalog, error) {
	c := &Catalog{db: db}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload republishes the snapshot from the backing store.
func (c *Catalog) Reload() error {
	var items []models.MenuItem
	if err := c.db.Order("id asc").Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load menu: %w", err)
	}

	byID := make(map[uint]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	c.mu.Lock()
	c.snap = &snapshot{items: items, byID: byID}
	c.mu.Unlock()
	return nil
}

func (c *Catalog) snapshot() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// ListAvailable returns the orderable menu sorted by category then name.
func (c *Catalog) ListAvailable() []models.MenuItem {
	snap := c.snapshot()
	out := make([]models.MenuItem, 0, len(snap.items))
	for _, item := range snap.items {
		if item.Available {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Get returns the item with the given id, or models.ErrNotFound.
func (c *Catalog) Get(id uint) (models.MenuItem, error) {
	snap := c.snapshot()
	item, ok := snap.byID[id]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("menu item %d: %w", id, models.ErrNotFound)
	}
	return item, nil
}

// FindByNameFragment returns every available item whose name contains the
// fragment, case-insensitively. Results keep catalog order (ascending id)
// so downstream tie-breaks stay reproducible. An empty result is not an
// error.
func (c *Catalog) FindByNameFragment(fragment string) []models.MenuItem {
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" {
		return nil
	}

	snap := c.snapshot()
	var out []models.MenuItem
	for _, item := range snap.items {
		if !item.Available {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), frag) {
			out = append(out, item)
		}
	}
	return out
}

// Add validates and inserts a new menu item, then republishes the snapshot.
func (c *Catalog) Add(item models.MenuItem) (uint, error) {
	if err := models.ValidateMenuItem(&item); err != nil {
		return 0, err
	}
	if err := c.db.Create(&item).Error; err != nil {
		return 0, fmt.Errorf("failed to add menu item: %w", err)
	}
	if err := c.Reload(); err != nil {
		return 0, err
	}
	return item.ID, nil
}

// SetAvailability retires or restores an item. Items are never deleted.
func (c *Catalog) SetAvailability(id uint, available bool) error {
	if _, err := c.Get(id); err != nil {
		return err
	}
	err := c.db.Model(&models.MenuItem{}).Where("id = ?", id).
		Update("available", available).Error
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	return c.Reload()
}

// SetPrice updates an item's unit price. Historical order lines keep their
// snapshot prices.
func (c *Catalog) SetPrice(id uint, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", models.ErrValidation)
	}
	if _, err := c.Get(id); err != nil {
		return err
	}
	err := c.db.Model(&models.MenuItem{}).Where("id = ?", id).
		Update("price", price).Error
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	return c.Reload()
}
