package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/persistence"
	"github.com/angelmondragon/storefront/pkg/enums"
)

// Line is one product/quantity pairing. The product is a reference into the catalog,
// never a copy.
type Line struct {
	ProductID catalog.ProductID `json:"productId"`
	Quantity  int               `json:"quantity"`
	AddedAt   *time.Time        `json:"addedAt,omitempty"`
}

// ProductSource resolves products and the shipping legs used by totals.
type ProductSource interface {
	Product(id catalog.ProductID) (catalog.Product, bool)
	Shipping() catalog.ShippingConfig
}

// Engine owns the cart lines of one session. Every mutation saves the full snapshot
// before returning and publishes its outcome.
type Engine struct {
	products ProductSource
	store    *persistence.Store
	events   notify.Publisher
	now      func() time.Time

	lines []Line
}

// NewEngine restores the persisted cart, dropping non-positive quantities and merging
// duplicate lines from older snapshots.
func NewEngine(ctx context.Context, products ProductSource, store *persistence.Store, events notify.Publisher) (*Engine, error) {
	if products == nil {
		return nil, fmt.Errorf("product source required")
	}
	if store == nil {
		return nil, fmt.Errorf("persistence store required")
	}
	if events == nil {
		events = notify.Discard
	}
	e := &Engine{
		products: products,
		store:    store,
		events:   events,
		now:      time.Now,
	}
	if saved, ok := persistence.Load[[]Line](ctx, store, persistence.NamespaceCart); ok {
		e.lines = normalize(saved)
	}
	return e, nil
}

func normalize(saved []Line) []Line {
	out := make([]Line, 0, len(saved))
	index := map[catalog.ProductID]int{}
	for _, l := range saved {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (e *Engine) find(id catalog.ProductID) int {
	for i, l := range e.lines {
		if l.ProductID == id {
			return i
		}
	}
	return -1
}

// AddItem adds one unit of a product, inserting a line or incrementing the existing one.
func (e *Engine) AddItem(ctx context.Context, id catalog.ProductID) enums.CartOutcome {
	product, ok := e.products.Product(id)
	if !ok || !product.Available() {
		e.publish(ctx, enums.NoticeCartUnavailable, enums.NoticeError, "Producto no disponible", id)
		return enums.CartOutcomeUnavailable
	}

	if i := e.find(id); i >= 0 {
		if e.lines[i].Quantity+1 > product.Stock {
			e.publish(ctx, enums.NoticeCartStockLimit, enums.NoticeError, "Stock máximo alcanzado", id)
			return enums.CartOutcomeStockLimitReached
		}
		e.lines[i].Quantity++
	} else {
		added := e.now().UTC()
		e.lines = append(e.lines, Line{ProductID: id, Quantity: 1, AddedAt: &added})
	}

	e.save(ctx)
	e.publish(ctx, enums.NoticeCartItemAdded, enums.NoticeSuccess, product.Name+" agregado al carrito", id)
	return enums.CartOutcomeOK
}

// UpdateQuantity applies delta to a line. A result of zero or less removes the line;
// a result above stock is rejected without change.
func (e *Engine) UpdateQuantity(ctx context.Context, id catalog.ProductID, delta int) enums.CartOutcome {
	i := e.find(id)
	if i < 0 {
		return enums.CartOutcomeNoop
	}
	product, ok := e.products.Product(id)
	if !ok {
		return enums.CartOutcomeNoop
	}

	next := e.lines[i].Quantity + delta
	if next <= 0 {
		return e.RemoveItem(ctx, id)
	}
	if next > product.Stock {
		e.publish(ctx, enums.NoticeCartStockLimit, enums.NoticeError, "Stock máximo alcanzado", id)
		return enums.CartOutcomeStockLimitReached
	}

	e.lines[i].Quantity = next
	e.save(ctx)
	e.publish(ctx, enums.NoticeCartItemUpdated, enums.NoticeInfo, "Cantidad actualizada", id)
	return enums.CartOutcomeOK
}

// RemoveItem deletes the line for id; absent lines are a no-op.
func (e *Engine) RemoveItem(ctx context.Context, id catalog.ProductID) enums.CartOutcome {
	i := e.find(id)
	if i < 0 {
		return enums.CartOutcomeNoop
	}
	e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
	e.save(ctx)
	e.publish(ctx, enums.NoticeCartItemRemoved, enums.NoticeSuccess, "Producto eliminado", id)
	return enums.CartOutcomeRemoved
}

// Clear empties the cart and persists the empty state.
func (e *Engine) Clear(ctx context.Context) {
	e.lines = nil
	e.save(ctx)
	e.events.Publish(ctx, notify.Event{
		Kind:    enums.NoticeCartCleared,
		Level:   enums.NoticeInfo,
		Message: "Carrito vaciado",
	})
}

// ItemCount is the sum of line quantities.
func (e *Engine) ItemCount() int {
	count := 0
	for _, l := range e.lines {
		count += l.Quantity
	}
	return count
}

// Quantity returns the quantity held for id, zero when absent.
func (e *Engine) Quantity(id catalog.ProductID) int {
	if i := e.find(id); i >= 0 {
		return e.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the lines in insertion order.
func (e *Engine) Lines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *Engine) save(ctx context.Context) {
	snapshot := e.Lines()
	e.store.Save(ctx, persistence.NamespaceCart, snapshot)
}

func (e *Engine) publish(ctx context.Context, kind enums.NoticeKind, level enums.NoticeLevel, msg string, id catalog.ProductID) {
	e.events.Publish(ctx, notify.Event{
		Kind:    kind,
		Level:   level,
		Message: msg,
		Data: map[string]any{
			"product_id": id.String(),
			"quantity":   e.Quantity(id),
			"item_count": e.ItemCount(),
		},
	})
}
