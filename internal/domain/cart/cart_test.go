package cart

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_SetAndRemove(t *testing.T) {
	c := New(uuid.New())
	p1, p2 := uuid.New(), uuid.New()

	require.NoError(t, c.Set(p1, 10))
	require.NoError(t, c.Set(p2, 5))
	require.NoError(t, c.Set(p1, 20))

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 20, c.QuantityOf(p1))
	assert.ElementsMatch(t, []uuid.UUID{p1, p2}, c.ProductIDs())

	require.NoError(t, c.Set(p2, 0))
	_, ok := c.Find(p2)
	assert.False(t, ok)

	assert.Error(t, c.Set(p1, -1))
	assert.Error(t, c.Set(uuid.Nil, 1))

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestCart_IsAbandoned(t *testing.T) {
	now := time.Now()
	c := New(uuid.New())
	require.NoError(t, c.Set(uuid.New(), 5))

	c.LastActivityAt = now.Add(-3 * time.Hour)
	assert.True(t, c.IsAbandoned(now, 2*time.Hour, 7*24*time.Hour))
	assert.False(t, c.IsAbandoned(now, 4*time.Hour, 7*24*time.Hour), "not idle long enough")
	assert.False(t, c.IsAbandoned(now, time.Hour, 2*time.Hour), "too old")

	c.MarkReminderSent(now.Add(-time.Hour))
	assert.False(t, c.IsAbandoned(now, 2*time.Hour, 7*24*time.Hour), "already reminded")

	require.NoError(t, c.Set(uuid.New(), 1))
	assert.Nil(t, c.ReminderSentAt, "activity re-arms the reminder")

	empty := New(uuid.New())
	empty.LastActivityAt = now.Add(-3 * time.Hour)
	assert.False(t, empty.IsAbandoned(now, 2*time.Hour, 7*24*time.Hour))
}

func TestCart_Merge(t *testing.T) {
	kept, bumped, clamped, unknown, inactive, soldOut := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()

	c := New(uuid.New())
	require.NoError(t, c.Set(kept, 12))
	require.NoError(t, c.Set(bumped, 10))
	require.NoError(t, c.Set(soldOut, 10))

	limits := map[uuid.UUID]ProductLimits{
		kept:     {Purchasable: true, MOQ: 10, Stock: 100},
		bumped:   {Purchasable: true, MOQ: 10, Stock: 100},
		clamped:  {Purchasable: true, MOQ: 6, Stock: 50},
		inactive: {Purchasable: false, MOQ: 1, Stock: 100},
		soldOut:  {Purchasable: true, MOQ: 10, Stock: 4},
	}

	res := c.Merge([]Item{
		{ProductID: kept, Quantity: 8},
		{ProductID: bumped, Quantity: 30},
		{ProductID: clamped, Quantity: 2},
		{ProductID: unknown, Quantity: 3},
		{ProductID: inactive, Quantity: 3},
	}, limits)

	assert.Equal(t, 12, c.QuantityOf(kept), "larger server quantity wins")
	assert.Equal(t, 30, c.QuantityOf(bumped), "larger client quantity wins")
	assert.Equal(t, 6, c.QuantityOf(clamped), "raised to MOQ")
	assert.Equal(t, 0, c.QuantityOf(unknown))
	assert.Equal(t, 0, c.QuantityOf(inactive))
	assert.Equal(t, 0, c.QuantityOf(soldOut))

	reasons := map[uuid.UUID]DropReason{}
	for _, d := range res.Dropped {
		reasons[d.ProductID] = d.Reason
	}
	assert.Equal(t, map[uuid.UUID]DropReason{
		unknown:  DropUnknownProduct,
		inactive: DropUnavailable,
		soldOut:  DropOutOfStock,
	}, reasons)

	require.Len(t, res.Adjusted, 1)
	assert.Equal(t, Adjusted{ProductID: clamped, Requested: 2, Quantity: 6}, res.Adjusted[0])
}

func TestCart_MergeClampsToStock(t *testing.T) {
	p := uuid.New()
	c := New(uuid.New())
	res := c.Merge([]Item{{ProductID: p, Quantity: 500}}, map[uuid.UUID]ProductLimits{
		p: {Purchasable: true, MOQ: 1, Stock: 40},
	})
	assert.Equal(t, 40, c.QuantityOf(p))
	require.Len(t, res.Adjusted, 1)
	assert.Equal(t, 500, res.Adjusted[0].Requested)
}

func TestCart_MergeIgnoresNonPositiveQuantities(t *testing.T) {
	zero, negative, held := uuid.New(), uuid.New(), uuid.New()
	c := New(uuid.New())
	require.NoError(t, c.Set(held, 20))

	limits := map[uuid.UUID]ProductLimits{
		zero:     {Purchasable: true, MOQ: 25, Stock: 100},
		negative: {Purchasable: true, MOQ: 25, Stock: 100},
		held:     {Purchasable: true, MOQ: 10, Stock: 100},
	}
	res := c.Merge([]Item{
		{ProductID: zero, Quantity: 0},
		{ProductID: negative, Quantity: -4},
		{ProductID: held, Quantity: -1},
	}, limits)

	assert.Equal(t, 0, c.QuantityOf(zero))
	assert.Equal(t, 0, c.QuantityOf(negative))
	assert.Equal(t, 20, c.QuantityOf(held))
	assert.Empty(t, res.Adjusted)
	assert.Empty(t, res.Dropped)
}
