package cart

import (
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one cart entry. Lines are values; the store never hands out
// references into its own slice.
type Line struct {
	ID        uuid.UUID              `json:"id"`
	ProductID uuid.UUID              `json:"product_id"`
	Product   models.ProductSnapshot `json:"product"`
	Quantity  int                    `json:"quantity"`
	Size      string                 `json:"size"`
	Color     string                 `json:"color"`
}

func (l Line) matches(productID uuid.UUID, size, color string) bool {
	return l.ProductID == productID && l.Size == size && l.Color == color
}

func (l Line) UnitPrice() decimal.Decimal {
	return l.Product.EffectivePrice()
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total is Σ effective price × quantity.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count is Σ quantity.
func Count(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func indexOf(lines []Line, lineID uuid.UUID) int {
	for i, l := range lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func toRows(userID uuid.UUID, lines []Line) []models.CartRow {
	rows := make([]models.CartRow, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, models.CartRow{
			ID:        l.ID,
			UserID:    userID,
			ProductID: l.ProductID,
			Product:   l.Product,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			Position:  i,
		})
	}
	return rows
}

func fromRows(rows []models.CartRow) []Line {
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, Line{
			ID:        r.ID,
			ProductID: r.ProductID,
			Product:   r.Product,
			Quantity:  r.Quantity,
			Size:      r.Size,
			Color:     r.Color,
		})
	}
	return lines
}
