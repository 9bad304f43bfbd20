package assistant

import (
	"context"
	"fmt"
	"strings"

	"maitred/internal/ledger"
	"maitred/internal/models"
)

// ToolKind enumerates the operations the agent can invoke. The set is
// closed: requests are built through constructors, so an unknown kind is
// unrepresentable rather than a runtime fallback branch.
type ToolKind int

const (
	ToolGetMenu ToolKind = iota
	ToolSearchMenu
	ToolParseOrder
	ToolCreateOrder
	ToolGetAnalytics
)

// ToolRequest is a tagged variant carrying the typed payload for exactly
// one tool invocation.
type ToolRequest struct {
	kind ToolKind

	query        string
	utterance    string
	customerName string
	parsed       models.ParsedOrder
}

// Kind returns the variant tag.
func (r ToolRequest) Kind() ToolKind { return r.kind }

// GetMenuRequest asks for the full menu grouped by category.
func GetMenuRequest() ToolRequest {
	return ToolRequest{kind: ToolGetMenu}
}

// SearchMenuRequest asks for items matching a natural-language query.
func SearchMenuRequest(query string) ToolRequest {
	return ToolRequest{kind: ToolSearchMenu, query: query}
}

// ParseOrderRequest asks for order-intent extraction from an utterance.
func ParseOrderRequest(utterance string) ToolRequest {
	return ToolRequest{kind: ToolParseOrder, utterance: utterance}
}

// CreateOrderRequest submits a confirmed parse for a named customer.
func CreateOrderRequest(customerName string, parsed models.ParsedOrder) ToolRequest {
	return ToolRequest{kind: ToolCreateOrder, customerName: customerName, parsed: parsed}
}

// AnalyticsRequest asks for the ledger aggregate.
func AnalyticsRequest() ToolRequest {
	return ToolRequest{kind: ToolGetAnalytics}
}

// Dispatch executes one tool request and renders its result for the
// conversational layer. The switch is exhaustive over ToolKind.
func (a *Assistant) Dispatch(ctx context.Context, req ToolRequest) (string, error) {
	switch req.kind {
	case ToolGetMenu:
		return renderMenu(a.GetMenu()), nil

	case ToolSearchMenu:
		return renderSearch(a.Search(ctx, req.query)), nil

	case ToolParseOrder:
		return renderParsed(a.ParseOrder(ctx, req.utterance)), nil

	case ToolCreateOrder:
		id, err := a.SubmitOrder(req.customerName, req.parsed)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Order created successfully with ID: %d", id), nil

	case ToolGetAnalytics:
		report, err := a.GetAnalytics()
		if err != nil {
			return "", err
		}
		return renderReport(report), nil
	}
	// Unreachable: ToolRequest values only exist via the constructors above.
	panic(fmt.Sprintf("unhandled tool kind %d", req.kind))
}

func renderMenu(menu []models.MenuItem) string {
	if len(menu) == 0 {
		return "Our menu is currently empty. Please check back later."
	}

	var b strings.Builder
	b.WriteString("Here's our complete menu:\n\n")
	current := ""
	for _, item := range menu {
		if item.Category != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = item.Category
			fmt.Fprintf(&b, "=== %s ===\n", strings.ToUpper(current))
		}
		fmt.Fprintf(&b, "- %s: $%s - %s\n", item.Name, item.Price.StringFixed(2), item.Description)
	}
	return b.String()
}

func renderSearch(items []models.MenuItem) string {
	if len(items) == 0 {
		return "No menu items found for your query."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d menu items:\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s - $%s (%s)\n", item.Name, item.Price.StringFixed(2), item.Category)
	}
	return b.String()
}

func renderParsed(parsed models.ParsedOrder) string {
	var b strings.Builder
	switch parsed.Status {
	case models.StatusUnresolved:
		b.WriteString("I couldn't match anything on the menu to that order.\n")
	default:
		b.WriteString("Here's what I understood:\n\n")
		for _, line := range parsed.Lines {
			fmt.Fprintf(&b, "- %d x %s @ $%s = $%s\n",
				line.Quantity, line.ItemName, line.UnitPrice.StringFixed(2), line.LineTotal.StringFixed(2))
		}
		fmt.Fprintf(&b, "\nTotal: $%s\n", parsed.TotalAmount.StringFixed(2))
	}
	for _, fragment := range parsed.Unresolved {
		fmt.Fprintf(&b, "I couldn't find %q on the menu.\n", fragment)
	}
	return b.String()
}

func renderReport(report ledger.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total orders: %d\n", report.OrderCount)
	fmt.Fprintf(&b, "Total revenue: $%s\n", report.TotalRevenue.StringFixed(2))
	if len(report.TopItems) > 0 {
		b.WriteString("Most popular items:\n")
		for _, item := range report.TopItems {
			fmt.Fprintf(&b, "- %s (%d ordered)\n", item.Name, item.Quantity)
		}
	}
	return b.String()
}
