package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Collector owns the Prometheus metrics for the ordering core. It
// satisfies the extractor's Metrics interface so extraction outcomes are
// counted where they happen.
type Collector struct {
	registry *prometheus.Registry

	extractions         prometheus.Counter
	extractionLines     prometheus.Counter
	unresolvedSpans     prometheus.Counter
	semanticFallbacks   prometheus.Counter
	backendDegradations prometheus.Counter
	ordersCreated       prometheus.Counter
	menuItems           prometheus.Gauge
	orderValue          prometheus.Histogram
}

// NewCollector creates the collectors on a dedicated registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_extractions_total",
			Help: "Number of order extraction calls",
		}),
		extractionLines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_extraction_lines_total",
			Help: "Number of order lines produced by extraction",
		}),
		unresolvedSpans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_unresolved_spans_total",
			Help: "Number of utterance spans that resolved to no item",
		}),
		semanticFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_semantic_fallbacks_total",
			Help: "Number of spans that required the semantic index",
		}),
		backendDegradations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_backend_degradations_total",
			Help: "Number of semantic backend failures handled by degrading to lexical matching",
		}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maitred_orders_created_total",
			Help: "Number of confirmed orders appended to the ledger",
		}),
		menuItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "maitred_menu_items",
			Help: "Number of available menu items in the catalog snapshot",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maitred_order_value_dollars",
			Help:    "Value of confirmed orders",
			Buckets: prometheus.LinearBuckets(5, 10, 10),
		}),
	}

	c.registry.MustRegister(
		c.extractions, c.extractionLines, c.unresolvedSpans,
		c.semanticFallbacks, c.backendDegradations,
		c.ordersCreated, c.menuItems, c.orderValue,
	)
	return c
}

// Registry returns the registry backing the /metrics endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveExtraction records the outcome of one extraction call.
func (c *Collector) ObserveExtraction(lines, unresolved int) {
	c.extractions.Inc()
	c.extractionLines.Add(float64(lines))
	c.unresolvedSpans.Add(float64(unresolved))
}

// ObserveSemanticFallback counts a span sent to the semantic index.
func (c *Collector) ObserveSemanticFallback() {
	c.semanticFallbacks.Inc()
}

// ObserveBackendDegraded counts a semantic backend failure that was
// degraded to lexical-only matching.
func (c *Collector) ObserveBackendDegraded() {
	c.backendDegradations.Inc()
}

// ObserveOrderCreated records a confirmed order and its value.
func (c *Collector) ObserveOrderCreated(total decimal.Decimal) {
	c.ordersCreated.Inc()
	value, _ := total.Float64()
	c.orderValue.Observe(value)
}

// SetMenuItems tracks the size of the available menu.
func (c *Collector) SetMenuItems(n int) {
	c.menuItems.Set(float64(n))
}
