// Package assistant is the surface the conversational layer talks to. It
// bundles the catalog, semantic index, extractor, and ledger behind the
// operations the agent and the HTTP API invoke as tools.
package assistant

import (
	"context"
	"fmt"
	"log"

	"maitred/internal/catalog"
	"maitred/internal/extractor"
	"maitred/internal/ledger"
	"maitred/internal/models"
	"maitred/internal/monitoring"
	"maitred/internal/semantic"
)

// SearchTopK is how many semantic matches a standalone search returns.
const SearchTopK = 5

// Assistant exposes the ordering core to external callers.
type Assistant struct {
	catalog   *catalog.Catalog
	index     *semantic.Index
	extractor *extractor.Extractor
	ledger    *ledger.Ledger
	collector *monitoring.Collector
}

// New wires the core components together. The collector may be nil.
func New(cat *catalog.Catalog, index *semantic.Index, ext *extractor.Extractor, led *ledger.Ledger, collector *monitoring.Collector) *Assistant {
	return &Assistant{
		catalog:   cat,
		index:     index,
		extractor: ext,
		ledger:    led,
		collector: collector,
	}
}

// GetMenu returns the orderable menu sorted by category then name.
func (a *Assistant) GetMenu() []models.MenuItem {
	menu := a.catalog.ListAvailable()
	if a.collector != nil {
		a.collector.SetMenuItems(len(menu))
	}
	return menu
}

// Search finds menu items by meaning. When the semantic backend is
// unavailable it degrades to lexical fragment matching instead of failing.
func (a *Assistant) Search(ctx context.Context, query string) []models.MenuItem {
	matches, err := a.index.Query(ctx, query, SearchTopK)
	if err != nil {
		log.Printf("semantic search degraded to lexical matching: %v", err)
		if a.collector != nil {
			a.collector.ObserveBackendDegraded()
		}
		return a.catalog.FindByNameFragment(query)
	}
	items := make([]models.MenuItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.Item)
	}
	return items
}

// ParseOrder runs the order-intent resolution pipeline on one utterance.
func (a *Assistant) ParseOrder(ctx context.Context, utterance string) models.ParsedOrder {
	return a.extractor.Extract(ctx, utterance)
}

// SubmitOrder appends a confirmed parse to the ledger. A parse with no
// resolved lines is refused here, before it reaches the ledger's own
// consistency checks.
func (a *Assistant) SubmitOrder(customerName string, parsed models.ParsedOrder) (uint, error) {
	if parsed.Status == models.StatusUnresolved {
		return 0, fmt.Errorf("%w: order has no resolved lines", models.ErrValidation)
	}
	id, err := a.ledger.Append(customerName, parsed.Lines, parsed.TotalAmount)
	if err != nil {
		return 0, err
	}
	if a.collector != nil {
		a.collector.ObserveOrderCreated(parsed.TotalAmount)
	}
	return id, nil
}

// GetAnalytics replays the ledger into the dashboard report.
func (a *Assistant) GetAnalytics() (ledger.Report, error) {
	return a.ledger.Aggregate()
}

// GetOrder returns one ledgered order.
func (a *Assistant) GetOrder(id uint) (models.Order, error) {
	return a.ledger.Get(id)
}

// UpdateOrderStatus drives fulfillment transitions.
func (a *Assistant) UpdateOrderStatus(id uint, to models.OrderStatus) error {
	return a.ledger.UpdateStatus(id, to)
}

// ReloadMenu republishes the catalog snapshot and reindexes the menu.
// Mutations to the menu must go through here so the index never serves a
// stale item set for longer than one rebuild.
func (a *Assistant) ReloadMenu(ctx context.Context) error {
	if err := a.catalog.Reload(); err != nil {
		return err
	}
	return a.index.Rebuild(ctx, a.catalog.ListAvailable())
}

// MenuContext renders the items most relevant to a query, used to ground
// the conversational model's replies.
func (a *Assistant) MenuContext(ctx context.Context, query string) string {
	items := a.Search(ctx, query)
	if len(items) == 0 {
		return ""
	}
	out := "Available menu items related to your query:\n\n"
	for _, item := range items {
		out += fmt.Sprintf("- %s ($%s) - %s\n", item.Name, item.Price.StringFixed(2), item.Category)
	}
	return out
}
