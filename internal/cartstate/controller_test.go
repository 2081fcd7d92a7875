package cartstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/normalize"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// --- Mock CartService ---

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) FetchCart(ctx context.Context) (any, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, productID, variantID int64, quantity int) (any, error) {
	args := m.Called(ctx, productID, variantID, quantity)
	return args.Get(0), args.Error(1)
}

func (m *mockCartService) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) (any, error) {
	args := m.Called(ctx, itemID, quantity)
	return args.Get(0), args.Error(1)
}

func (m *mockCartService) RemoveItem(ctx context.Context, itemID int64) (any, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0), args.Error(1)
}

func (m *mockCartService) ApplyCoupon(ctx context.Context, code string) (any, error) {
	args := m.Called(ctx, code)
	return args.Get(0), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawCart(items []map[string]any, subtotal, total string) map[string]any {
	list := make([]any, len(items))
	for i := range items {
		list[i] = items[i]
	}
	return map[string]any{"data": map[string]any{"items": list, "subtotal": subtotal, "total": total}}
}

func rawItem(id int64, unitPrice string, quantity int, subtotal string) map[string]any {
	return map[string]any{
		"id":         float64(id),
		"product_id": float64(id * 10),
		"unit_price": unitPrice,
		"quantity":   float64(quantity),
		"subtotal":   subtotal,
	}
}

// initialCart has item 1 (2 x 10.00) and item 2 (1 x 5.50) with a server
// total that includes a discount.
func initialCart() map[string]any {
	return rawCart([]map[string]any{
		rawItem(1, "10.00", 2, "20.00"),
		rawItem(2, "5.50", 1, "5.50"),
	}, "25.50", "23.00")
}

type recorder struct {
	mu    sync.Mutex
	carts []domain.Cart
}

func (r *recorder) record(c domain.Cart) {
	r.mu.Lock()
	r.carts = append(r.carts, c)
	r.mu.Unlock()
}

func (r *recorder) all() []domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Cart(nil), r.carts...)
}

func newTestController(t *testing.T, svc *mockCartService) (*Controller, *normalize.Normalizer) {
	t.Helper()
	norm := normalize.New("en", nil)
	c := NewController(svc, norm, newTestLogger())

	svc.On("FetchCart", mock.Anything).Return(initialCart(), nil).Once()
	require.NoError(t, c.Refresh(context.Background()))
	return c, norm
}

// ============================================================================
// Refresh
// ============================================================================

func TestRefresh_ReplacesCart(t *testing.T) {
	svc := new(mockCartService)
	c, norm := newTestController(t, svc)

	assert.Equal(t, norm.Cart(initialCart()), c.Cart())
	assert.Equal(t, 3, c.Cart().ItemsCount)
	assert.Equal(t, "23.00", c.Cart().Total)
	svc.AssertExpectations(t)
}

func TestRefresh_ErrorKeepsCart(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)
	before := c.Cart()

	svc.On("FetchCart", mock.Anything).Return(nil, errors.New("offline")).Once()
	err := c.Refresh(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch cart")
	assert.Equal(t, before, c.Cart())
}

func TestNewController_StartsEmpty(t *testing.T) {
	c := NewController(new(mockCartService), normalize.New("en", nil), newTestLogger())
	assert.Equal(t, domain.EmptyCart(), c.Cart())
	assert.True(t, c.CanMutate(1))
	assert.Equal(t, Idle, c.ItemState(1))
}

// ============================================================================
// ChangeQuantity
// ============================================================================

func TestChangeQuantity_OptimisticBeforeResponse(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	started := make(chan struct{})
	release := make(chan struct{})
	serverCart := rawCart([]map[string]any{
		rawItem(1, "10.00", 3, "30.00"),
		rawItem(2, "5.50", 1, "5.50"),
	}, "35.50", "32.00")

	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(serverCart, nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.ChangeQuantity(context.Background(), 1, +1) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("request was never sent")
	}

	optimistic := c.Cart()
	assert.Equal(t, 3, optimistic.Items[0].Quantity)
	assert.Equal(t, "30.00", optimistic.Items[0].Subtotal)
	assert.Equal(t, "35.50", optimistic.Subtotal)
	assert.Equal(t, "35.50", optimistic.Total)
	assert.Equal(t, 4, optimistic.ItemsCount)
	assert.Equal(t, Pending, c.ItemState(1))
	assert.False(t, c.CanMutate(1))
	assert.True(t, c.CanMutate(2))

	close(release)
	require.NoError(t, <-done)

	confirmed := c.Cart()
	assert.Equal(t, "32.00", confirmed.Total, "server cart replaces the optimistic one")
	assert.Equal(t, Idle, c.ItemState(1))
	svc.AssertExpectations(t)
}

func TestChangeQuantity_SecondMutationRefusedWhilePending(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(initialCart(), nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.ChangeQuantity(context.Background(), 1, +1) }()
	<-started

	err := c.ChangeQuantity(context.Background(), 1, +1)
	assert.ErrorIs(t, err, ErrMutationPending)

	err = c.RemoveItem(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMutationPending)

	close(release)
	require.NoError(t, <-done)
	assert.True(t, c.CanMutate(1))

	svc.AssertNumberOfCalls(t, "UpdateItemQuantity", 1)
	svc.AssertNotCalled(t, "RemoveItem", mock.Anything, mock.Anything)
}

func TestChangeQuantity_RollbackEqualsFreshFetch(t *testing.T) {
	svc := new(mockCartService)
	c, norm := newTestController(t, svc)

	rec := &recorder{}
	c.Subscribe(rec.record)

	authoritative := rawCart([]map[string]any{
		rawItem(1, "10.00", 2, "20.00"),
		rawItem(2, "5.50", 1, "5.50"),
	}, "25.50", "22.00")

	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).
		Return(nil, apperrors.Rejected("Only 2 left in stock")).Once()
	svc.On("FetchCart", mock.Anything).Return(authoritative, nil).Once()

	err := c.ChangeQuantity(context.Background(), 1, +1)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Only 2 left in stock", appErr.Message)
	assert.True(t, apperrors.IsServerRejection(err))

	assert.Equal(t, norm.Cart(authoritative), c.Cart())
	assert.Equal(t, Idle, c.ItemState(1))

	published := rec.all()
	require.NotEmpty(t, published)
	assert.Equal(t, "30.00", published[0].Items[0].Subtotal, "optimistic cart published first")
	assert.Equal(t, norm.Cart(authoritative), published[len(published)-1])
	svc.AssertExpectations(t)
}

func TestChangeQuantity_RefreshFailureRestoresSnapshot(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)
	before := c.Cart()

	transportErr := errors.New("connection reset")
	fetchErr := errors.New("still offline")
	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).Return(nil, transportErr).Once()
	svc.On("FetchCart", mock.Anything).Return(nil, fetchErr).Once()

	err := c.ChangeQuantity(context.Background(), 1, +1)

	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, before, c.Cart())
	assert.True(t, c.CanMutate(1))
}

func TestChangeQuantity_FailedResyncKeepsChangesConfirmedMeanwhile(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, errors.New("connection reset")).Once()

	confirmed := rawCart([]map[string]any{
		rawItem(1, "10.00", 2, "20.00"),
		rawItem(2, "5.50", 2, "11.00"),
	}, "31.00", "28.50")
	svc.On("UpdateItemQuantity", mock.Anything, int64(2), 2).Return(confirmed, nil).Once()
	svc.On("FetchCart", mock.Anything).Return(nil, errors.New("still offline")).Once()

	done := make(chan error, 1)
	go func() { done <- c.ChangeQuantity(context.Background(), 1, +1) }()
	<-started

	require.NoError(t, c.ChangeQuantity(context.Background(), 2, +1))
	close(release)
	require.Error(t, <-done)

	item1, ok := c.Cart().Item(1)
	require.True(t, ok)
	assert.Equal(t, 2, item1.Quantity, "failed change reverted")

	item2, ok := c.Cart().Item(2)
	require.True(t, ok)
	assert.Equal(t, 2, item2.Quantity, "confirmed change kept")
	assert.Equal(t, "11.00", item2.Subtotal)
	assert.Equal(t, 4, c.Cart().ItemsCount)
	assert.Equal(t, "31.00", c.Cart().Subtotal)
	assert.True(t, c.Settled())
	svc.AssertExpectations(t)
}

func TestChangeQuantity_BelowOneRemoves(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	afterRemove := rawCart([]map[string]any{rawItem(1, "10.00", 2, "20.00")}, "20.00", "20.00")
	svc.On("RemoveItem", mock.Anything, int64(2)).Return(afterRemove, nil).Once()

	require.NoError(t, c.ChangeQuantity(context.Background(), 2, -1))

	assert.Len(t, c.Cart().Items, 1)
	svc.AssertNotCalled(t, "UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertExpectations(t)
}

func TestChangeQuantity_UnknownItem(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	err := c.ChangeQuantity(context.Background(), 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, c.ChangeQuantity(context.Background(), 1, 0))
}

func TestChangeQuantity_IgnoresCallerCancellation(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	svc.On("UpdateItemQuantity", mock.Anything, int64(1), 3).
		Run(func(args mock.Arguments) {
			cancel()
			assert.NoError(t, args.Get(0).(context.Context).Err())
		}).
		Return(initialCart(), nil).Once()

	assert.NoError(t, c.ChangeQuantity(ctx, 1, 1))
}

func TestChangeQuantity_DifferentItemsRunConcurrently(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	var wg sync.WaitGroup
	wg.Add(2)
	svc.On("UpdateItemQuantity", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			wg.Done()
			wg.Wait()
		}).
		Return(initialCart(), nil).Twice()

	errs := make(chan error, 2)
	go func() { errs <- c.ChangeQuantity(context.Background(), 1, 1) }()
	go func() { errs <- c.ChangeQuantity(context.Background(), 2, 1) }()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.True(t, c.CanMutate(1))
	assert.True(t, c.CanMutate(2))
}

// ============================================================================
// RemoveItem
// ============================================================================

func TestRemoveItem_OptimisticThenEmptyResponseRefreshes(t *testing.T) {
	svc := new(mockCartService)
	c, norm := newTestController(t, svc)

	rec := &recorder{}
	c.Subscribe(rec.record)

	afterRemove := rawCart([]map[string]any{rawItem(2, "5.50", 1, "5.50")}, "5.50", "5.50")
	svc.On("RemoveItem", mock.Anything, int64(1)).Return(nil, nil).Once()
	svc.On("FetchCart", mock.Anything).Return(afterRemove, nil).Once()

	require.NoError(t, c.RemoveItem(context.Background(), 1))

	published := rec.all()
	require.NotEmpty(t, published)
	assert.Len(t, published[0].Items, 1)
	assert.Equal(t, "5.50", published[0].Total)
	assert.Equal(t, norm.Cart(afterRemove), c.Cart())
	svc.AssertExpectations(t)
}

func TestRemoveItem_FailureRestoresItem(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	svc.On("RemoveItem", mock.Anything, int64(1)).Return(nil, apperrors.Forbidden("not your cart")).Once()
	svc.On("FetchCart", mock.Anything).Return(initialCart(), nil).Once()

	err := c.RemoveItem(context.Background(), 1)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, "not your cart", apperrors.Message(err))
	_, ok := c.Cart().Item(1)
	assert.True(t, ok)
}

// ============================================================================
// AddItem
// ============================================================================

func TestAddItem_ReplacesCartOnSuccess(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	withNew := rawCart([]map[string]any{
		rawItem(1, "10.00", 2, "20.00"),
		rawItem(2, "5.50", 1, "5.50"),
		rawItem(3, "1.00", 4, "4.00"),
	}, "29.50", "29.50")
	svc.On("AddItem", mock.Anything, int64(30), int64(0), 4).Return(withNew, nil).Once()

	require.NoError(t, c.AddItem(context.Background(), AddItemInput{ProductID: 30, Quantity: 4}))
	assert.Len(t, c.Cart().Items, 3)
	assert.Equal(t, 7, c.Cart().ItemsCount)
}

func TestAddItem_EmptyResponseRefreshes(t *testing.T) {
	svc := new(mockCartService)
	c, norm := newTestController(t, svc)

	withNew := rawCart([]map[string]any{
		rawItem(1, "10.00", 2, "20.00"),
		rawItem(2, "5.50", 1, "5.50"),
		rawItem(3, "1.00", 1, "1.00"),
	}, "26.50", "26.50")
	svc.On("AddItem", mock.Anything, int64(7), int64(0), 1).Return(nil, nil).Once()
	svc.On("FetchCart", mock.Anything).Return(withNew, nil).Once()

	require.NoError(t, c.AddItem(context.Background(), AddItemInput{ProductID: 7, Quantity: 1}))

	assert.Equal(t, norm.Cart(withNew), c.Cart())
	assert.Equal(t, 4, c.Cart().ItemsCount)
	svc.AssertExpectations(t)
}

func TestAddItem_EmptyResponseRefreshFailureKeepsCart(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)
	before := c.Cart()

	svc.On("AddItem", mock.Anything, int64(7), int64(0), 1).Return(nil, nil).Once()
	svc.On("FetchCart", mock.Anything).Return(nil, errors.New("offline")).Once()

	require.NoError(t, c.AddItem(context.Background(), AddItemInput{ProductID: 7, Quantity: 1}))
	assert.Equal(t, before, c.Cart())
}

func TestAddItem_InvalidInputNeverSent(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	err := c.AddItem(context.Background(), AddItemInput{ProductID: 0, Quantity: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddItem_FailureResyncs(t *testing.T) {
	svc := new(mockCartService)
	c, norm := newTestController(t, svc)

	fresh := rawCart([]map[string]any{rawItem(1, "10.00", 2, "20.00")}, "20.00", "20.00")
	svc.On("AddItem", mock.Anything, int64(30), int64(7), 1).Return(nil, apperrors.Rejected("Variant is out of stock")).Once()
	svc.On("FetchCart", mock.Anything).Return(fresh, nil).Once()

	err := c.AddItem(context.Background(), AddItemInput{ProductID: 30, VariantID: 7, Quantity: 1})

	assert.Equal(t, "Variant is out of stock", apperrors.Message(err))
	assert.Equal(t, norm.Cart(fresh), c.Cart())
}

// ============================================================================
// ApplyCoupon
// ============================================================================

func TestApplyCoupon_MergesTotalsOnly(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)
	before := c.Cart()

	svc.On("ApplyCoupon", mock.Anything, "SAVE10").
		Return(map[string]any{"data": map[string]any{"subtotal": "25.50", "total": "20.40", "items": []any{}}}, nil).Once()

	require.NoError(t, c.ApplyCoupon(context.Background(), "  SAVE10 "))

	after := c.Cart()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.ItemsCount, after.ItemsCount)
	assert.Equal(t, "25.50", after.Subtotal)
	assert.Equal(t, "20.40", after.Total)
}

func TestApplyCoupon_MissingTotalsKeepCurrent(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	svc.On("ApplyCoupon", mock.Anything, "X1").Return(map[string]any{"message": "ok"}, nil).Once()

	require.NoError(t, c.ApplyCoupon(context.Background(), "X1"))
	assert.Equal(t, "23.00", c.Cart().Total)
}

func TestApplyCoupon_RejectedResyncs(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	svc.On("ApplyCoupon", mock.Anything, "OLD").Return(nil, apperrors.Rejected("Coupon has expired")).Once()
	svc.On("FetchCart", mock.Anything).Return(initialCart(), nil).Once()

	err := c.ApplyCoupon(context.Background(), "OLD")

	assert.ErrorIs(t, err, apperrors.ErrRejected)
	assert.Equal(t, "Coupon has expired", apperrors.Message(err))
	svc.AssertExpectations(t)
}

func TestApplyCoupon_EmptyCode(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	err := c.ApplyCoupon(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// ============================================================================
// restoreItem
// ============================================================================

func TestRestoreItem(t *testing.T) {
	snapshot := domain.Cart{
		Items: []domain.CartItem{
			{ID: 1, Quantity: 2, UnitPrice: "10.00", Subtotal: "20.00"},
			{ID: 2, Quantity: 1, UnitPrice: "5.50", Subtotal: "5.50"},
		},
		ItemsCount: 3, Subtotal: "25.50", Total: "23.00",
	}

	t.Run("whole snapshot when the cart is untouched", func(t *testing.T) {
		cur, _ := snapshot.WithoutItem(1)
		assert.Equal(t, snapshot, restoreItem(cur, snapshot, 1, true))
	})

	t.Run("reinserts a removed item at its position", func(t *testing.T) {
		cur, _ := snapshot.WithItemQuantity(2, 4)
		cur, _ = cur.WithoutItem(1)

		got := restoreItem(cur, snapshot, 1, false)

		require.Len(t, got.Items, 2)
		assert.Equal(t, int64(1), got.Items[0].ID)
		assert.Equal(t, 4, got.Items[1].Quantity, "other item's pending change is kept")
		assert.Equal(t, 6, got.ItemsCount)
		assert.Equal(t, "42.00", got.Subtotal)
	})

	t.Run("reverts a changed quantity", func(t *testing.T) {
		cur, _ := snapshot.WithItemQuantity(1, 5)
		got := restoreItem(cur, snapshot, 1, false)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.Equal(t, "25.50", got.Subtotal)
	})
}

// ============================================================================
// Seed
// ============================================================================

func TestSeed(t *testing.T) {
	c := NewController(new(mockCartService), normalize.New("en", nil), newTestLogger())
	rec := &recorder{}
	c.Subscribe(rec.record)

	require.True(t, c.Seed(initialCart()))
	assert.Equal(t, "23.00", c.Cart().Total)
	assert.Len(t, rec.all(), 1)
}

func TestSeed_IgnoredWhileMutating(t *testing.T) {
	svc := new(mockCartService)
	c, _ := newTestController(t, svc)

	started := make(chan struct{})
	release := make(chan struct{})
	svc.On("RemoveItem", mock.Anything, int64(1)).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(initialCart(), nil).Once()

	done := make(chan error, 1)
	go func() { done <- c.RemoveItem(context.Background(), 1) }()
	<-started

	assert.False(t, c.Seed(rawCart(nil, "0.00", "0.00")))
	assert.False(t, c.Settled())

	close(release)
	require.NoError(t, <-done)
	assert.True(t, c.Settled())
}
