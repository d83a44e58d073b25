package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flouci-labs/checkout-gateway/internal/flouci"
	"github.com/flouci-labs/checkout-gateway/internal/models"
	"github.com/flouci-labs/checkout-gateway/internal/tracking"
)

// fakeStore is an in-memory OrderStore with the same compare-and-set
// transition semantics as the Postgres repository.
type fakeStore struct {
	mu     sync.Mutex
	orders map[int64]*models.Order
	notes  map[int64][]string
}

func newFakeStore(orders ...*models.Order) *fakeStore {
	s := &fakeStore{
		orders: make(map[int64]*models.Order),
		notes:  make(map[int64][]string),
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *fakeStore) GetOrder(_ context.Context, orderID int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", models.ErrOrderNotFound, orderID)
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) CompleteOrder(_ context.Context, orderID int64, note string) (bool, error) {
	return s.transition(orderID, models.StatusCompleted, note)
}

func (s *fakeStore) FailOrder(_ context.Context, orderID int64, note string) (bool, error) {
	return s.transition(orderID, models.StatusFailed, note)
}

func (s *fakeStore) transition(orderID int64, to models.OrderStatus, note string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return false, fmt.Errorf("%w: order %d", models.ErrOrderNotFound, orderID)
	}
	if o.Status == to {
		return false, nil
	}
	if o.Status.Terminal() {
		return false, fmt.Errorf("%w: order %d is %s, refusing %s", models.ErrStateConflict, orderID, o.Status, to)
	}
	o.Status = to
	s.notes[orderID] = append(s.notes[orderID], note)
	return true, nil
}

func (s *fakeStore) status(orderID int64) models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID].Status
}

type fakeVerifier struct {
	results map[string]*flouci.VerifyResult
	err     error
	calls   int
}

func (v *fakeVerifier) VerifyPayment(_ context.Context, paymentID string) (*flouci.VerifyResult, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	res, ok := v.results[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment", models.ErrVerifyTransport)
	}
	return res, nil
}

func verifyResult(success bool, trackingID string) *flouci.VerifyResult {
	r := &flouci.VerifyResult{Success: success}
	r.Result.DeveloperTrackingID = trackingID
	return r
}

type fakeLocker struct {
	held map[string]bool
}

func (l *fakeLocker) Acquire(_ context.Context, paymentID string) (bool, error) {
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[paymentID] {
		return false, nil
	}
	l.held[paymentID] = true
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, paymentID string) {
	delete(l.held, paymentID)
}

type fakePublisher struct {
	events []models.OrderStateEvent
}

func (p *fakePublisher) PublishStateChange(_ context.Context, event models.OrderStateEvent) error {
	p.events = append(p.events, event)
	return nil
}

func order(id int64, status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:        id,
		Total:     decimal.RequireFromString("25.00"),
		Status:    status,
		ReturnURL: fmt.Sprintf("https://shop/checkout/order-received/%d", id),
		CancelURL: fmt.Sprintf("https://shop/checkout/order-cancelled/%d", id),
	}
}

func newTestReconciler(store *fakeStore, verifier *fakeVerifier) (*Reconciler, *fakePublisher) {
	pub := &fakePublisher{}
	r := NewReconciler(store, verifier, tracking.NewCodec(""), &fakeLocker{}, pub, zap.NewNop())
	return r, pub
}

func TestReconcileSuccess(t *testing.T) {
	store := newFakeStore(order(42, models.StatusPending))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_1": verifyResult(true, "ORDER42"),
	}}
	r, pub := newTestReconciler(store, verifier)

	outcome, err := r.Reconcile(context.Background(), "pay_1")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Completed)
	assert.Equal(t, int64(42), outcome.OrderID)
	assert.Equal(t, "https://shop/checkout/order-received/42", outcome.RedirectURL)
	assert.Equal(t, models.StatusCompleted, store.status(42))
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.StatusCompleted, pub.events[0].State)
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakeStore(order(42, models.StatusPending))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_1": verifyResult(true, "ORDER42"),
	}}
	r, pub := newTestReconciler(store, verifier)

	first, err := r.Reconcile(context.Background(), "pay_1")
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), "pay_1")
	require.NoError(t, err)

	// Same redirect, status still completed, no duplicate note or event.
	assert.Equal(t, first.RedirectURL, second.RedirectURL)
	assert.Equal(t, models.StatusCompleted, store.status(42))
	assert.Len(t, store.notes[42], 1)
	assert.Len(t, pub.events, 1)
}

func TestReconcileFailure(t *testing.T) {
	store := newFakeStore(order(7, models.StatusPending))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_2": verifyResult(false, "ORDER7"),
	}}
	r, pub := newTestReconciler(store, verifier)

	outcome, err := r.Reconcile(context.Background(), "pay_2")
	require.NoError(t, err)
	assert.False(t, outcome.Completed)
	assert.Equal(t, "https://shop/checkout/order-cancelled/7", outcome.RedirectURL)
	assert.Equal(t, models.StatusFailed, store.status(7))
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.StatusFailed, pub.events[0].State)
}

func TestReconcileUnknownOrder(t *testing.T) {
	store := newFakeStore()
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_3": verifyResult(true, "ORDER999"),
	}}
	r, pub := newTestReconciler(store, verifier)

	_, err := r.Reconcile(context.Background(), "pay_3")
	assert.ErrorIs(t, err, models.ErrCorrelation)
	assert.Empty(t, pub.events)
}

func TestReconcileMalformedTrackingID(t *testing.T) {
	store := newFakeStore(order(42, models.StatusPending))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_4": verifyResult(true, "BOGUS42"),
	}}
	r, _ := newTestReconciler(store, verifier)

	_, err := r.Reconcile(context.Background(), "pay_4")
	assert.ErrorIs(t, err, models.ErrCorrelation)
	assert.Equal(t, models.StatusPending, store.status(42))
}

func TestReconcileStateConflict(t *testing.T) {
	store := newFakeStore(order(42, models.StatusCompleted))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_5": verifyResult(false, "ORDER42"),
	}}
	r, pub := newTestReconciler(store, verifier)

	// A later, contradictory notification must not flip a completed order.
	_, err := r.Reconcile(context.Background(), "pay_5")
	assert.ErrorIs(t, err, models.ErrStateConflict)
	assert.Equal(t, models.StatusCompleted, store.status(42))
	assert.Empty(t, pub.events)
}

func TestReconcileVerifyTransportError(t *testing.T) {
	store := newFakeStore(order(42, models.StatusPending))
	verifier := &fakeVerifier{err: fmt.Errorf("%w: connection refused", models.ErrVerifyTransport)}
	r, pub := newTestReconciler(store, verifier)

	_, err := r.Reconcile(context.Background(), "pay_6")
	assert.ErrorIs(t, err, models.ErrVerifyTransport)
	// No tracking id means no order can be touched.
	assert.Equal(t, models.StatusPending, store.status(42))
	assert.Empty(t, pub.events)
}

func TestReconcileEmptyPaymentID(t *testing.T) {
	store := newFakeStore(order(42, models.StatusPending))
	verifier := &fakeVerifier{}
	r, _ := newTestReconciler(store, verifier)

	outcome, err := r.Reconcile(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.Zero(t, verifier.calls)
	assert.Equal(t, models.StatusPending, store.status(42))
}

func TestReconcileDuplicateFailureIsNoOp(t *testing.T) {
	store := newFakeStore(order(7, models.StatusFailed))
	verifier := &fakeVerifier{results: map[string]*flouci.VerifyResult{
		"pay_7": verifyResult(false, "ORDER7"),
	}}
	r, pub := newTestReconciler(store, verifier)

	outcome, err := r.Reconcile(context.Background(), "pay_7")
	require.NoError(t, err)
	assert.False(t, outcome.Completed)
	assert.Equal(t, models.StatusFailed, store.status(7))
	assert.Empty(t, store.notes[7])
	assert.Empty(t, pub.events)
}
