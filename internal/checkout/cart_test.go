package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var bigBale = Availability{BaleName: "Bale A", ItemCount: 100}

func TestAdd_ConsolidatesIdenticalPriceLines(t *testing.T) {
	var c Cart
	for i := 0; i < 3; i++ {
		err := c.Add(Line{BaleID: 1, Price: 100, Quantity: 1}, bigBale)
		assert.NoError(t, err)
	}

	assert.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, 300.0, c.Total())
}

func TestAdd_FreebieDoesNotMergeWithPaidLine(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 100, Quantity: 1}, bigBale))
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 100, Quantity: 1, IsFreebie: true}, bigBale))

	assert.Len(t, c.Lines, 2)
	assert.Equal(t, 0.0, c.Lines[1].Price) // freebies are forced to zero
	assert.Equal(t, 100.0, c.Total())
}

func TestAdd_OutOfStockDoesNotMutateCart(t *testing.T) {
	var c Cart
	avail := Availability{BaleName: "Bale B", ItemCount: 10, SoldInDB: 10}

	err := c.Add(Line{BaleID: 2, Price: 50, Quantity: 1}, avail)

	var oos *OutOfStockError
	assert.True(t, errors.As(err, &oos))
	assert.Equal(t, "Bale B", oos.BaleName)
	assert.Equal(t, 10, oos.Sold)
	assert.Equal(t, 10, oos.Total)
	assert.Empty(t, c.Lines)
}

func TestAdd_CartContentsCountAgainstCapacity(t *testing.T) {
	var c Cart
	avail := Availability{BaleName: "Bale C", ItemCount: 5, SoldInDB: 3}

	assert.NoError(t, c.Add(Line{BaleID: 3, Price: 80, Quantity: 2}, avail))

	err := c.Add(Line{BaleID: 3, Price: 60, Quantity: 1}, avail)
	var oos *OutOfStockError
	assert.True(t, errors.As(err, &oos))
	assert.Equal(t, 5, oos.Sold) // 3 in DB + 2 in cart
}

func TestDiscount_Percentage(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 1000, Quantity: 1}, bigBale))
	assert.NoError(t, c.SetDiscount(DiscountPercentage, 20))

	assert.Equal(t, 200.0, c.DiscountAmount())
	assert.Equal(t, 800.0, c.Total())
}

func TestDiscount_Fixed(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 1000, Quantity: 1}, bigBale))
	assert.NoError(t, c.SetDiscount(DiscountFixed, 150))

	assert.Equal(t, 850.0, c.Total())
}

func TestDiscount_CapsRejectOverage(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 500, Quantity: 1}, bigBale))

	assert.ErrorIs(t, c.SetDiscount(DiscountFixed, 600), ErrOverCap)
	assert.ErrorIs(t, c.SetDiscount(DiscountPercentage, 120), ErrOverCap)
}

func TestDiscount_TotalNeverNegative(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 100, Quantity: 1}, bigBale))
	assert.NoError(t, c.SetDiscount(DiscountFixed, 100))

	assert.Equal(t, 0.0, c.Total())

	// Shrink the cart under the already-set discount; the amount clamps.
	c.RemoveLine(0)
	assert.Equal(t, 0.0, c.Total())
}

func TestDiscountRatio(t *testing.T) {
	var c Cart
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 400, Quantity: 1}, bigBale))
	assert.NoError(t, c.Add(Line{BaleID: 1, Price: 100, Quantity: 2}, bigBale))
	assert.NoError(t, c.SetDiscount(DiscountPercentage, 10))

	assert.InDelta(t, 0.1, c.DiscountRatio(), 1e-9)

	var empty Cart
	assert.Equal(t, 0.0, empty.DiscountRatio())
}
