package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotalPrefersSalePrice(t *testing.T) {
	full := sneaker("Air Jordan 1", "199.99")
	onSale := sneaker("Ultraboost 22", "189.99", "149.99")

	lines := []Line{
		{ID: uuid.New(), ProductID: full.ID, Product: full.Snapshot(), Quantity: 2},
		{ID: uuid.New(), ProductID: onSale.ID, Product: onSale.Snapshot(), Quantity: 1},
	}

	assert.True(t, Total(lines).Equal(decimal.RequireFromString("549.97")), "got %s", Total(lines))
	assert.Equal(t, 3, Count(lines))
	assert.True(t, lines[1].UnitPrice().Equal(decimal.RequireFromString("149.99")))
}

func TestTotalOfEmptyCart(t *testing.T) {
	assert.True(t, Total(nil).IsZero())
	assert.Equal(t, 0, Count(nil))
}

func TestCloneLinesIsIndependent(t *testing.T) {
	orig := []Line{{ID: uuid.New(), Quantity: 1}}
	cp := cloneLines(orig)
	cp[0].Quantity = 9
	assert.Equal(t, 1, orig[0].Quantity)
	assert.NotNil(t, cloneLines(nil))
}

func TestRowsRoundTripKeepsOrder(t *testing.T) {
	p := sneaker("990v6", "199.99")
	userID := uuid.New()
	lines := []Line{
		{ID: uuid.New(), ProductID: p.ID, Product: p.Snapshot(), Quantity: 1, Size: "US 9", Color: "Grey"},
		{ID: uuid.New(), ProductID: p.ID, Product: p.Snapshot(), Quantity: 2, Size: "US 10", Color: "Grey"},
	}
	rows := toRows(userID, lines)
	assert.Equal(t, 0, rows[0].Position)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, userID, rows[1].UserID)
	assert.Equal(t, lines, fromRows(rows))
}
