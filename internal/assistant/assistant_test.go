package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"maitred/internal/catalog"
	"maitred/internal/database"
	"maitred/internal/extractor"
	"maitred/internal/ledger"
	"maitred/internal/models"
	"maitred/internal/semantic"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// budgetEmbedder succeeds for a fixed number of embed calls, then fails.
// Setting the budget to the corpus size makes the rebuild succeed and
// every later query fail, simulating a backend that went down afterwards.
type budgetEmbedder struct {
	inner     *semantic.TFIDF
	remaining int
}

func (b *budgetEmbedder) Name() string { return "budget" }

func (b *budgetEmbedder) Prepare(corpus []string) error {
	return b.inner.Prepare(corpus)
}

func (b *budgetEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if b.remaining <= 0 {
		return nil, fmt.Errorf("%w: embedder offline", models.ErrBackendUnavailable)
	}
	b.remaining--
	return b.inner.Embed(ctx, text)
}

func newTestAssistant(t *testing.T) *Assistant {
	t.Helper()
	a, _ := newTestAssistantWithEmbedder(t, semantic.NewTFIDF())
	return a
}

func newTestAssistantWithEmbedder(t *testing.T, emb semantic.Embedder) (*Assistant, *semantic.Index) {
	t.Helper()
	db, err := gorm.Open("sqlite3", filepath.Join(t.TempDir(), "assistant_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedMenu(db))

	cat, err := catalog.New(db)
	require.NoError(t, err)

	ix := semantic.NewIndex(emb, cat)

	ext := extractor.New(cat, ix, 0, nil)
	led := ledger.New(db)
	return New(cat, ix, ext, led, nil), ix
}

func TestDispatchGetMenu(t *testing.T) {
	a := newTestAssistant(t)

	out, err := a.Dispatch(context.Background(), GetMenuRequest())
	require.NoError(t, err)
	assert.Contains(t, out, "=== PIZZA ===")
	assert.Contains(t, out, "=== BEVERAGE ===")
	assert.Contains(t, out, "- Margherita Pizza: $12.99")
	assert.Contains(t, out, "- Ice Cream: $4.99")
}

func TestDispatchSearchMenu(t *testing.T) {
	a, ix := newTestAssistantWithEmbedder(t, semantic.NewTFIDF())
	cat := a.catalog
	require.NoError(t, ix.Rebuild(context.Background(), cat.ListAvailable()))

	out, err := a.Dispatch(context.Background(), SearchMenuRequest("creamy bacon pasta"))
	require.NoError(t, err)
	assert.Contains(t, out, "Found")
	assert.Contains(t, out, "Pasta Carbonara")
}

func TestDispatchParseOrder(t *testing.T) {
	a := newTestAssistant(t)

	out, err := a.Dispatch(context.Background(), ParseOrderRequest("2 chicken burger"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 x Chicken Burger")
	assert.Contains(t, out, "Total: $27.98")
}

func TestDispatchCreateOrderAndAnalytics(t *testing.T) {
	a := newTestAssistant(t)

	parsed := a.ParseOrder(context.Background(), "2 chicken burger")
	require.Equal(t, models.StatusResolved, parsed.Status)

	out, err := a.Dispatch(context.Background(), CreateOrderRequest("Alice", parsed))
	require.NoError(t, err)
	assert.Contains(t, out, "Order created successfully with ID: 1")

	report, err := a.Dispatch(context.Background(), AnalyticsRequest())
	require.NoError(t, err)
	assert.Contains(t, report, "Total orders: 1")
	assert.Contains(t, report, "Total revenue: $27.98")
	assert.Contains(t, report, "- Chicken Burger (2 ordered)")
}

func TestSubmitOrderRefusesUnresolvedParse(t *testing.T) {
	a := newTestAssistant(t)

	parsed := a.ParseOrder(context.Background(), "5 unicorn steak")
	require.Equal(t, models.StatusUnresolved, parsed.Status)

	_, err := a.SubmitOrder("Alice", parsed)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSubmitOrderAcceptsPartialParse(t *testing.T) {
	a := newTestAssistant(t)

	parsed := a.ParseOrder(context.Background(), "2 chicken burger and 5 unicorn steak")
	require.Equal(t, models.StatusPartiallyResolved, parsed.Status)

	id, err := a.SubmitOrder("Bob", parsed)
	require.NoError(t, err)

	order, err := a.GetOrder(id)
	require.NoError(t, err)
	assert.Len(t, order.Lines, 1)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("27.98")))
}

func TestSearchDegradesToLexical(t *testing.T) {
	emb := &budgetEmbedder{inner: semantic.NewTFIDF(), remaining: 10}
	a, ix := newTestAssistantWithEmbedder(t, emb)
	require.NoError(t, ix.Rebuild(context.Background(), a.GetMenu()))

	items := a.Search(context.Background(), "burger")
	require.Len(t, items, 2)
	assert.Equal(t, "Chicken Burger", items[0].Name)
	assert.Equal(t, "Beef Burger", items[1].Name)
}

func TestUpdateOrderStatus(t *testing.T) {
	a := newTestAssistant(t)

	parsed := a.ParseOrder(context.Background(), "1 caesar salad")
	id, err := a.SubmitOrder("Carol", parsed)
	require.NoError(t, err)

	require.NoError(t, a.UpdateOrderStatus(id, models.OrderStatusPreparing))
	err = a.UpdateOrderStatus(id, models.OrderStatusPending)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestReloadMenuReindexes(t *testing.T) {
	a, _ := newTestAssistantWithEmbedder(t, semantic.NewTFIDF())
	ctx := context.Background()
	require.NoError(t, a.ReloadMenu(ctx))

	items := a.Search(ctx, "creamy bacon pasta")
	require.NotEmpty(t, items)
	assert.Equal(t, "Pasta Carbonara", items[0].Name)
}

func TestMenuContext(t *testing.T) {
	a, ix := newTestAssistantWithEmbedder(t, semantic.NewTFIDF())
	ctx := context.Background()

	// Before the index is built there is nothing to ground on.
	assert.Empty(t, a.MenuContext(ctx, "creamy bacon pasta"))

	require.NoError(t, ix.Rebuild(ctx, a.GetMenu()))
	out := a.MenuContext(ctx, "creamy bacon pasta")
	assert.Contains(t, out, "Pasta Carbonara")
	assert.Contains(t, out, "$14.99")
}

func TestSessionLifecycle(t *testing.T) {
	m := NewSessionManager()

	s := m.Create("Alice")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "Alice", s.CustomerName)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "Alice", got.CustomerName)

	_, err = m.Get("no-such-session")
	assert.ErrorIs(t, err, models.ErrNotFound)

	m.Destroy(s.ID)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Destroying twice is fine.
	m.Destroy(s.ID)
}

func TestSessionHistoryTrimmed(t *testing.T) {
	m := NewSessionManager()
	s := m.Create("Bob")

	for i := 0; i < historyLimit+10; i++ {
		require.NoError(t, m.AppendTurn(s.ID, "user", fmt.Sprintf("message %d", i)))
	}

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, historyLimit)
	assert.Equal(t, "message 10", got.History[0].Content)
}

func TestAgentOrderConfirmationFlow(t *testing.T) {
	a := newTestAssistant(t)
	agent := NewAgent(a, NewSessionManager(), nil)
	s := agent.Sessions().Create("Alice")
	ctx := context.Background()

	reply, err := agent.Respond(ctx, s.ID, "I would like 2 chicken burgers please")
	require.NoError(t, err)
	assert.Contains(t, reply, "2 x Chicken Burger")
	assert.Contains(t, reply, `Reply "confirm" to place this order.`)

	current, err := agent.Sessions().Get(s.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Pending)

	reply, err = agent.Respond(ctx, s.ID, "confirm")
	require.NoError(t, err)
	assert.Contains(t, reply, "Order created successfully with ID: 1")

	current, err = agent.Sessions().Get(s.ID)
	require.NoError(t, err)
	assert.Nil(t, current.Pending)

	order, err := a.GetOrder(1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", order.CustomerName)
}

func TestAgentRoutesMenuAndAnalytics(t *testing.T) {
	a := newTestAssistant(t)
	agent := NewAgent(a, NewSessionManager(), nil)
	s := agent.Sessions().Create("Bob")
	ctx := context.Background()

	reply, err := agent.Respond(ctx, s.ID, "can I see the menu?")
	require.NoError(t, err)
	assert.Contains(t, reply, "Here's our complete menu:")

	reply, err = agent.Respond(ctx, s.ID, "what is popular here?")
	require.NoError(t, err)
	assert.Contains(t, reply, "Total orders: 0")
}

func TestAgentRecordsHistory(t *testing.T) {
	a := newTestAssistant(t)
	agent := NewAgent(a, NewSessionManager(), nil)
	s := agent.Sessions().Create("Carol")

	_, err := agent.Respond(context.Background(), s.ID, "show me the menu")
	require.NoError(t, err)

	got, err := agent.Sessions().Get(s.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "user", got.History[0].Role)
	assert.Equal(t, "assistant", got.History[1].Role)
}

func TestConcurrentRespondSameSession(t *testing.T) {
	a := newTestAssistant(t)
	agent := NewAgent(a, NewSessionManager(), nil)
	s := agent.Sessions().Create("Heidi")
	ctx := context.Background()

	// A client reconnecting its websocket can have two in-flight messages
	// on one session. Both must complete without tearing session state.
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			message := "show me the menu"
			if n%2 == 0 {
				message = "1 caesar salad"
			}
			if _, err := agent.Respond(ctx, s.ID, message); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Respond() error: %v", err)
	}

	got, err := agent.Sessions().Get(s.ID)
	require.NoError(t, err)
	assert.Len(t, got.History, 16)
}

func TestAgentUnknownSession(t *testing.T) {
	a := newTestAssistant(t)
	agent := NewAgent(a, NewSessionManager(), nil)

	_, err := agent.Respond(context.Background(), "missing", "hello")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGreeting(t *testing.T) {
	g := Greeting("Dave")
	assert.Contains(t, g, "Dave")
	assert.Contains(t, g, "menu")
}
