package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a confirmed, ledgered order. Rows are append-only: everything
// except Status is frozen at creation time.
type Order struct {
	ID           uint            `gorm:"primary_key" json:"id"`
	CustomerName string          `gorm:"not null" json:"customer_name"`
	Lines        []OrderLine     `gorm:"foreignkey:OrderID" json:"lines"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status       string          `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrderLine is a single priced line of an order. UnitPrice is a snapshot
// taken from the catalog at resolution time so later price changes never
// alter historical orders.
type OrderLine struct {
	ID        uint            `gorm:"primary_key" json:"-"`
	OrderID   uint            `gorm:"index" json:"-"`
	ItemID    uint            `gorm:"not null" json:"item_id"`
	ItemName  string          `gorm:"not null" json:"item_name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
}

// OrderStatus represents the possible states of a ledgered order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// allowedTransitions enumerates the legal status changes. Fulfillment is
// driven by external callers; the ledger only enforces the walk.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ResolutionStatus classifies the outcome of one extraction call.
type ResolutionStatus string

const (
	// StatusResolved means every referenced item was matched and priced.
	StatusResolved ResolutionStatus = "resolved"
	// StatusPartiallyResolved means some spans matched and some did not.
	StatusPartiallyResolved ResolutionStatus = "partially_resolved"
	// StatusUnresolved means no order line could be produced.
	StatusUnresolved ResolutionStatus = "unresolved"
)

// ParsedOrder is the transient, priced result of extracting order intent
// from one utterance. Absence of a match is represented here as data,
// never as an error.
type ParsedOrder struct {
	Lines       []OrderLine      `json:"lines"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Unresolved  []string         `json:"unresolved_fragments,omitempty"`
	Status      ResolutionStatus `json:"status"`
}

// Resolve computes the total and status from the assembled lines and
// unresolved fragments.
func (p *ParsedOrder) Resolve() {
	total := decimal.Zero
	for _, line := range p.Lines {
		total = total.Add(line.LineTotal)
	}
	p.TotalAmount = total

	switch {
	case len(p.Lines) == 0:
		p.Status = StatusUnresolved
	case len(p.Unresolved) > 0:
		p.Status = StatusPartiallyResolved
	default:
		p.Status = StatusResolved
	}
}
