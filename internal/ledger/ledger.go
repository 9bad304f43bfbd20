// Package ledger is the durable, append-only record of confirmed orders
// and the aggregation queries used for reporting.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// TopItemLimit caps the popularity ranking in reports.
const TopItemLimit = 5

// Ledger appends confirmed orders and replays history for reporting.
// Appends are serialized so concurrent submissions never collide on id or
// corrupt aggregate counts.
type Ledger struct {
	db *gorm.DB
	mu sync.Mutex
}

// New builds a ledger over the given database.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Append records a confirmed order and returns its assigned id. Ids are
// unique and monotonically increasing; a rolled-back transaction may leave
// a gap. The lines and total are consistency-checked at this boundary.
func (l *Ledger) Append(customerName string, lines []models.OrderLine, total decimal.Decimal) (uint, error) {
	if strings.TrimSpace(customerName) == "" {
		return 0, fmt.Errorf("%w: customer name is required", models.ErrValidation)
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("%w: order has no lines", models.ErrValidation)
	}
	sum := decimal.Zero
	for _, line := range lines {
		if line.Quantity < 1 {
			return 0, fmt.Errorf("%w: line quantity must be at least 1", models.ErrValidation)
		}
		expected := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if !line.LineTotal.Equal(expected) {
			return 0, fmt.Errorf("%w: line total for %q does not match quantity × unit price",
				models.ErrValidation, line.ItemName)
		}
		sum = sum.Add(line.LineTotal)
	}
	if !sum.Equal(total) {
		return 0, fmt.Errorf("%w: order total %s does not match sum of line totals %s",
			models.ErrValidation, total.StringFixed(2), sum.StringFixed(2))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	order := models.Order{
		CustomerName: customerName,
		TotalAmount:  total,
		Status:       string(models.OrderStatusPending),
	}

	tx := l.db.Begin()
	if err := tx.Error; err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to append order: %w", err)
	}
	for _, line := range lines {
		line.ID = 0
		line.OrderID = order.ID
		if err := tx.Create(&line).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to append order line: %w", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}
	return order.ID, nil
}

// Get returns one order with its frozen lines, or models.ErrNotFound.
func (l *Ledger) Get(id uint) (models.Order, error) {
	var order models.Order
	err := l.db.Preload("Lines").Where("id = ?", id).First(&order).Error
	if gorm.IsRecordNotFoundError(err) {
		return models.Order{}, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// UpdateStatus drives an order through the fulfillment walk. Only the
// status field is mutable after append.
func (l *Ledger) UpdateStatus(id uint, to models.OrderStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, err := l.Get(id)
	if err != nil {
		return err
	}
	if !models.CanTransition(models.OrderStatus(order.Status), to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, to)
	}
	err = l.db.Model(&models.Order{}).Where("id = ?", id).
		Update("status", string(to)).Error
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// ItemCount is one row of the popularity ranking.
type ItemCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Report is the ledger aggregate used by the dashboard.
type Report struct {
	OrderCount   int64           `json:"order_count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TopItems     []ItemCount     `json:"top_items"`
}

// Aggregate replays the full order history. There are no separate mutable
// counters that could drift from the ledger.
func (l *Ledger) Aggregate() (Report, error) {
	var orders []models.Order
	if err := l.db.Preload("Lines").Order("id asc").Find(&orders).Error; err != nil {
		return Report{}, fmt.Errorf("failed to replay orders: %w", err)
	}

	report := Report{TotalRevenue: decimal.Zero}
	report.OrderCount = int64(len(orders))

	quantities := make(map[string]int)
	firstSeen := make(map[string]int)
	for _, order := range orders {
		report.TotalRevenue = report.TotalRevenue.Add(order.TotalAmount)
		for _, line := range order.Lines {
			if _, ok := firstSeen[line.ItemName]; !ok {
				firstSeen[line.ItemName] = len(firstSeen)
			}
			quantities[line.ItemName] += line.Quantity
		}
	}

	top := make([]ItemCount, 0, len(quantities))
	for name, qty := range quantities {
		top = append(top, ItemCount{Name: name, Quantity: qty})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return firstSeen[top[i].Name] < firstSeen[top[j].Name]
	})
	if len(top) > TopItemLimit {
		top = top[:TopItemLimit]
	}
	report.TopItems = top
	return report, nil
}
