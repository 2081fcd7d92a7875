// Package cartstate holds the long-lived cart and applies user mutations to
// it optimistically while keeping it consistent with the server.
package cartstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/coerce"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/envelope"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// Operation names used in logs and metrics.
const (
	opChangeQuantity = "change_quantity"
	opRemoveItem     = "remove_item"
	opAddItem        = "add_item"
	opApplyCoupon    = "apply_coupon"
	opRefresh        = "refresh"
)

var tracer = otel.Tracer("github.com/utafrali/storefront/internal/cartstate")

// CartService is the network surface the controller mutates the cart
// through. Every method returns the decoded JSON response body.
type CartService interface {
	FetchCart(ctx context.Context) (any, error)
	AddItem(ctx context.Context, productID, variantID int64, quantity int) (any, error)
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (any, error)
	RemoveItem(ctx context.Context, itemID int64) (any, error)
	ApplyCoupon(ctx context.Context, code string) (any, error)
}

// CartNormalizer turns a raw cart payload into a canonical Cart.
type CartNormalizer interface {
	Cart(raw any) domain.Cart
}

// AddItemInput holds the parameters for adding a product to the cart.
type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	VariantID int64 `json:"variant_id" validate:"gte=0"`
	Quantity  int   `json:"quantity" validate:"min=1,max=100"`
}

type couponInput struct {
	Code string `json:"code" validate:"required,max=64"`
}

// Controller owns the cart shown to the user. Reads and writes of its state
// are serialized by a mutex; exclusivity of mutations on one item comes from
// the per-item state machine, not from the lock.
type Controller struct {
	svc    CartService
	logger *slog.Logger

	mu     sync.Mutex
	norm   CartNormalizer
	cart   domain.Cart
	gen    uint64 // bumped on every change to cart
	states map[int64]ItemState
	subs   []func(domain.Cart)

	// notifyMu orders subscriber notifications so the last one delivered
	// always carries the latest cart.
	notifyMu sync.Mutex
}

// NewController creates a controller holding an empty cart.
func NewController(svc CartService, norm CartNormalizer, logger *slog.Logger) *Controller {
	return &Controller{
		svc:    svc,
		norm:   norm,
		logger: logger,
		cart:   domain.EmptyCart(),
		states: make(map[int64]ItemState),
	}
}

// SetNormalizer swaps the normalizer used for subsequent server responses,
// typically after the user changes locale.
func (c *Controller) SetNormalizer(norm CartNormalizer) {
	c.mu.Lock()
	c.norm = norm
	c.mu.Unlock()
}

// Cart returns the cart currently displayed.
func (c *Controller) Cart() domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart
}

// Subscribe registers fn to receive every cart the controller publishes.
func (c *Controller) Subscribe(fn func(domain.Cart)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// ItemState returns the mutation state of an item. Items never mutated are Idle.
func (c *Controller) ItemState(itemID int64) ItemState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[itemID]
}

// CanMutate reports whether a new mutation on the item would be accepted.
func (c *Controller) CanMutate(itemID int64) bool {
	return c.ItemState(itemID) == Idle
}

// Settled reports whether no item has a mutation in flight, i.e. the
// displayed cart is the server's.
func (c *Controller) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.states) == 0
}

// Seed replaces the displayed cart with a locally stored one, such as a
// snapshot saved by a previous session. It is ignored while any mutation is
// in flight.
func (c *Controller) Seed(raw any) bool {
	c.mu.Lock()
	if len(c.states) > 0 {
		c.mu.Unlock()
		return false
	}
	c.setCart(c.norm.Cart(raw))
	c.mu.Unlock()
	c.publish()
	return true
}

// Refresh fetches the authoritative cart and replaces the displayed one.
func (c *Controller) Refresh(ctx context.Context) error {
	defer observe(opRefresh, time.Now())

	raw, err := c.svc.FetchCart(ctx)
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}
	c.replace(raw)
	c.publish()
	return nil
}

// ChangeQuantity adds delta to the item's quantity. A resulting quantity
// below one removes the item instead. The new quantity and totals are
// published before the request is sent; on failure the cart is resynced
// from the server and the error returned.
func (c *Controller) ChangeQuantity(ctx context.Context, itemID int64, delta int) error {
	if delta == 0 {
		return nil
	}

	c.mu.Lock()
	item, ok := c.cart.Item(itemID)
	c.mu.Unlock()
	if !ok {
		return itemNotFound(itemID)
	}

	quantity := item.Quantity + delta
	if quantity < 1 {
		return c.RemoveItem(ctx, itemID)
	}

	return c.mutateItem(ctx, opChangeQuantity, itemID,
		func(cart domain.Cart) (domain.Cart, bool) { return cart.WithItemQuantity(itemID, quantity) },
		func(ctx context.Context) (any, error) {
			raw, err := c.svc.UpdateItemQuantity(ctx, itemID, quantity)
			if err != nil {
				return nil, fmt.Errorf("update item quantity: %w", err)
			}
			return raw, nil
		},
	)
}

// RemoveItem drops the item from the displayed cart at once, then asks the
// server to remove it. On failure the cart is resynced from the server.
func (c *Controller) RemoveItem(ctx context.Context, itemID int64) error {
	return c.mutateItem(ctx, opRemoveItem, itemID,
		func(cart domain.Cart) (domain.Cart, bool) { return cart.WithoutItem(itemID) },
		func(ctx context.Context) (any, error) {
			raw, err := c.svc.RemoveItem(ctx, itemID)
			if err != nil {
				return nil, fmt.Errorf("remove item: %w", err)
			}
			return raw, nil
		},
	)
}

// AddItem adds a product to the cart. The cart only changes once the server
// answers; on failure it is resynced.
func (c *Controller) AddItem(ctx context.Context, input AddItemInput) (err error) {
	if err := validator.ValidateInput(input); err != nil {
		return err
	}

	ctx, log, finish := c.begin(ctx, opAddItem, slog.Int64("product_id", input.ProductID))
	defer func() { finish(err) }()

	raw, err := c.svc.AddItem(ctx, input.ProductID, input.VariantID, input.Quantity)
	if err != nil {
		return c.resync(ctx, log, opAddItem, fmt.Errorf("add item: %w", err))
	}

	if raw == nil {
		// Empty success body: the added line only exists on the server.
		if rerr := c.Refresh(ctx); rerr != nil {
			log.Warn("refresh after empty response failed", slog.String("error", rerr.Error()))
		}
	} else {
		c.replace(raw)
		c.publish()
	}
	MutationsTotal.WithLabelValues(opAddItem, outcomeConfirmed).Inc()
	log.Info("cart mutation confirmed")
	return nil
}

// ApplyCoupon applies a coupon code. Only the subtotal and total from the
// server's answer are merged into the displayed cart; items are kept as is.
func (c *Controller) ApplyCoupon(ctx context.Context, code string) (err error) {
	in := couponInput{Code: strings.TrimSpace(code)}
	if err := validator.ValidateInput(in); err != nil {
		return err
	}

	ctx, log, finish := c.begin(ctx, opApplyCoupon, slog.String("code", in.Code))
	defer func() { finish(err) }()

	raw, err := c.svc.ApplyCoupon(ctx, in.Code)
	if err != nil {
		return c.resync(ctx, log, opApplyCoupon, fmt.Errorf("apply coupon: %w", err))
	}

	src := envelope.Object(envelope.UnwrapResource(raw))
	c.mu.Lock()
	subtotal, total := c.cart.Subtotal, c.cart.Total
	if envelope.Has(src, "subtotal") {
		subtotal = coerce.ToMoney(src["subtotal"])
	}
	if envelope.Has(src, "total") {
		total = coerce.ToMoney(src["total"])
	}
	c.setCart(c.cart.WithTotals(subtotal, total))
	c.mu.Unlock()

	c.publish()
	MutationsTotal.WithLabelValues(opApplyCoupon, outcomeConfirmed).Inc()
	log.Info("cart mutation confirmed", slog.String("total", total))
	return nil
}

// mutateItem runs one optimistic mutation on a single item through the
// state machine: apply locally and publish, send, then either replace the
// cart with the server's or roll back and resync.
func (c *Controller) mutateItem(
	ctx context.Context,
	op string,
	itemID int64,
	apply func(domain.Cart) (domain.Cart, bool),
	send func(context.Context) (any, error),
) (err error) {
	c.mu.Lock()
	if _, ok := c.cart.Item(itemID); !ok {
		c.mu.Unlock()
		return itemNotFound(itemID)
	}
	if err := c.dispatch(itemID, eventBegin); err != nil {
		c.mu.Unlock()
		MutationsTotal.WithLabelValues(op, outcomeRefused).Inc()
		return fmt.Errorf("item %d: %w", itemID, err)
	}
	snapshot := c.cart
	if next, ok := apply(c.cart); ok {
		c.setCart(next)
	}
	applied := c.gen
	c.mu.Unlock()
	c.publish()

	ctx, log, finish := c.begin(ctx, op, slog.Int64("item_id", itemID))
	defer func() { finish(err) }()

	raw, err := send(ctx)
	if err != nil {
		c.settle(itemID, eventFail)
		err = c.rollback(ctx, log, op, itemID, snapshot, applied, err)
		c.settle(itemID, eventSettle)
		c.publish()
		return err
	}

	c.settle(itemID, eventSucceed)
	if raw == nil {
		// Empty success body: the optimistic cart stands until a refresh
		// brings the server's version.
		if rerr := c.Refresh(ctx); rerr != nil {
			log.Warn("refresh after empty response failed", slog.String("error", rerr.Error()))
		}
	} else {
		c.replace(raw)
	}
	c.settle(itemID, eventSettle)
	c.publish()

	MutationsTotal.WithLabelValues(op, outcomeConfirmed).Inc()
	log.Info("cart mutation confirmed")
	return nil
}

// rollback discards the optimistic cart after a failed item mutation. The
// server's cart replaces it; when even that fetch fails, the item is put back
// as it was before the mutation. applied is the cart generation right after
// the optimistic change.
func (c *Controller) rollback(ctx context.Context, log *slog.Logger, op string, itemID int64, snapshot domain.Cart, applied uint64, cause error) error {
	MutationsTotal.WithLabelValues(op, outcomeRolledBack).Inc()
	log.Warn("cart mutation failed, rolling back", slog.String("error", cause.Error()))

	raw, err := c.svc.FetchCart(ctx)
	if err == nil {
		c.replace(raw)
		return cause
	}

	log.Error("resync after failed mutation failed, restoring previous cart",
		slog.String("error", err.Error()),
	)
	c.mu.Lock()
	untouched := c.gen == applied && !c.othersPending(itemID)
	c.setCart(restoreItem(c.cart, snapshot, itemID, untouched))
	c.mu.Unlock()
	return errors.Join(cause, fmt.Errorf("fetch cart: %w", err))
}

// resync refreshes the cart after a failed non-optimistic mutation.
func (c *Controller) resync(ctx context.Context, log *slog.Logger, op string, cause error) error {
	MutationsTotal.WithLabelValues(op, outcomeRolledBack).Inc()
	log.Warn("cart mutation failed, resyncing", slog.String("error", cause.Error()))

	if err := c.Refresh(ctx); err != nil {
		log.Error("resync after failed mutation failed", slog.String("error", err.Error()))
		return errors.Join(cause, err)
	}
	return cause
}

// dispatch is the single entry point into the item state machine. Callers
// hold c.mu.
func (c *Controller) dispatch(itemID int64, ev event) error {
	from := c.states[itemID]
	to, err := transition(from, ev)
	if err != nil {
		return err
	}

	switch {
	case from == Idle && to == Pending:
		PendingItems.Inc()
	case from == Pending:
		PendingItems.Dec()
	}

	if to == Idle {
		delete(c.states, itemID)
	} else {
		c.states[itemID] = to
	}
	return nil
}

// settle dispatches an event the controller itself guarantees to be legal.
func (c *Controller) settle(itemID int64, ev event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dispatch(itemID, ev); err != nil {
		c.logger.Error("unexpected cart item transition",
			slog.Int64("item_id", itemID),
			slog.String("error", err.Error()),
		)
	}
}

// othersPending reports whether any item other than itemID has a mutation in
// flight. Callers hold c.mu.
func (c *Controller) othersPending(itemID int64) bool {
	for id, st := range c.states {
		if id != itemID && st == Pending {
			return true
		}
	}
	return false
}

// replace normalizes raw and makes it the displayed cart.
func (c *Controller) replace(raw any) {
	c.mu.Lock()
	c.setCart(c.norm.Cart(raw))
	c.mu.Unlock()
}

// setCart installs cart as the displayed one. Callers hold c.mu.
func (c *Controller) setCart(cart domain.Cart) {
	c.cart = cart
	c.gen++
}

// publish hands the current cart to every subscriber.
func (c *Controller) publish() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	cart := c.cart
	subs := make([]func(domain.Cart), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(cart)
	}
}

// begin detaches the mutation from caller cancellation, tags it with a
// correlation id and a span, and returns a logger carrying both. finish ends
// the span with the mutation's outcome and records its duration.
func (c *Controller) begin(ctx context.Context, op string, attrs ...any) (context.Context, *slog.Logger, func(error)) {
	ctx = context.WithoutCancel(ctx)
	if logger.CorrelationIDFromContext(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	}
	ctx, span := tracer.Start(ctx, "cart."+op, trace.WithAttributes(
		attribute.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
	))

	log := logger.WithContext(ctx, c.logger).With(slog.String("operation", op)).With(attrs...)
	log.Debug("cart mutation started")

	start := time.Now()
	return ctx, log, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.Message(err))
		}
		span.End()
		observe(op, start)
	}
}

func observe(op string, start time.Time) {
	MutationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// restoreItem puts the snapshot's version of an item back into cur. When
// the cart has not changed since the optimistic apply, the whole snapshot is
// restored, server totals included; otherwise only the item is reverted and
// totals are recomputed, keeping changes confirmed in the meantime.
func restoreItem(cur, snapshot domain.Cart, itemID int64, untouched bool) domain.Cart {
	if untouched {
		return snapshot
	}

	idx := snapshot.FindItemIndex(itemID)
	if idx < 0 {
		return cur
	}
	original := snapshot.Items[idx]

	items := make([]domain.CartItem, 0, len(cur.Items)+1)
	if i := cur.FindItemIndex(itemID); i >= 0 {
		items = append(items, cur.Items...)
		items[i] = original
	} else {
		pos := min(idx, len(cur.Items))
		items = append(items, cur.Items[:pos]...)
		items = append(items, original)
		items = append(items, cur.Items[pos:]...)
	}
	cur.Items = items
	return cur.Recalculated()
}

func itemNotFound(itemID int64) error {
	return apperrors.NotFound("cart item", strconv.FormatInt(itemID, 10))
}
