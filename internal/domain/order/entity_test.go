package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailhub/internal/domain/customer"
)

func newCustomer(t *testing.T) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(1, "Alice", "alice@example.com", "", "", 30)
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	c := newCustomer(t)
	it := newItem(t, newProduct(t, 101, 10), 1)
	now := time.Now()

	tests := []struct {
		name     string
		customer *customer.Customer
		items    []*Item
		wantErr  error
	}{
		{name: "missing customer", customer: nil, items: []*Item{it}, wantErr: ErrMissingCustomer},
		{name: "no items", customer: c, items: nil, wantErr: ErrNoItems},
		{name: "nil item", customer: c, items: []*Item{it, nil}, wantErr: ErrNilItem},
		{name: "valid", customer: c, items: []*Item{it}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(1001, tt.customer, tt.items, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusPending, o.Status())
			assert.Equal(t, int64(1001), o.ID())
			assert.Equal(t, now, o.CreatedAt())
		})
	}
}

func TestOrder_ItemsIsACopy(t *testing.T) {
	items := []*Item{newItem(t, newProduct(t, 101, 10), 1)}
	o, err := New(1001, newCustomer(t), items, time.Now())
	require.NoError(t, err)

	items[0] = nil
	got := o.Items()
	got[0] = nil

	assert.NotNil(t, o.Items()[0])
}

func TestOrder_DeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		reserved int
		backlog  bool
		want     Status
	}{
		{name: "fully reserved", reserved: 5, backlog: true, want: StatusReadyToBeDelivered},
		{name: "backordered", reserved: 2, backlog: true, want: StatusPartiallyFulfilled},
		{name: "nothing reserved, backorder recorded", reserved: 0, backlog: true, want: StatusPartiallyFulfilled},
		{name: "unmet only", reserved: 2, backlog: false, want: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := newItem(t, newProduct(t, 101, 10), 5)
			require.NoError(t, it.Evaluate(tt.reserved, tt.backlog))
			o, err := New(1001, newCustomer(t), []*Item{it}, time.Now())
			require.NoError(t, err)

			assert.Equal(t, tt.want, o.DeriveStatus())
		})
	}
}

func TestOrder_TotalValueBillsRequested(t *testing.T) {
	a := newItem(t, newProduct(t, 101, 10), 15)
	require.NoError(t, a.Evaluate(10, true))
	b := newItem(t, newProduct(t, 102, 10), 1)
	o, err := New(1001, newCustomer(t), []*Item{a, b}, time.Now())
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(16*1200).Equal(o.TotalValue()))
}

func TestOrder_Transition(t *testing.T) {
	o, err := New(1001, newCustomer(t), []*Item{newItem(t, newProduct(t, 101, 10), 1)}, time.Now())
	require.NoError(t, err)

	require.NoError(t, o.Transition(StatusReadyToBeDelivered))
	require.NoError(t, o.Transition(StatusCanceled))
	assert.ErrorIs(t, o.Transition(StatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, o.Transition(StatusFulfilled), ErrInvalidTransition)
	assert.Equal(t, StatusCanceled, o.Status())
	assert.ErrorIs(t, o.Transition(Status("SHIPPED")), ErrInvalidTransition)
}

func TestOrder_Snapshot(t *testing.T) {
	it := newItem(t, newProduct(t, 101, 10), 15)
	require.NoError(t, it.Evaluate(10, true))
	o, err := New(1001, newCustomer(t), []*Item{it}, time.Now())
	require.NoError(t, err)
	require.NoError(t, o.Transition(o.DeriveStatus()))

	v := o.Snapshot()

	assert.Equal(t, StatusPartiallyFulfilled, v.Status)
	assert.Equal(t, 1, v.CustomerID)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 10, v.Items[0].ReservedQty)
	assert.Equal(t, 5, v.Items[0].BackorderedQty)
	assert.Equal(t, "Laptop", v.Items[0].ProductName)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusFulfilled.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusReadyToBeDelivered.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestFulfillResult_Succeeded(t *testing.T) {
	assert.True(t, FulfillReady.Succeeded())
	assert.True(t, FulfillPartial.Succeeded())
	assert.False(t, FulfillNoProgress.Succeeded())
	assert.False(t, FulfillClosed.Succeeded())
	assert.False(t, FulfillNotFound.Succeeded())
	assert.Equal(t, "no_progress", FulfillNoProgress.String())
}
