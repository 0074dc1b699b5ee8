package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		SKU:      "KF-" + uuid.NewString()[:8],
		Name:     name,
		Brand:    "Nike",
		Category: "sneakers",
		Price:    decimal.RequireFromString(price),
		Stock:    5,
		IsActive: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time, lines ...models.OrderLine) models.Order {
	t.Helper()
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal())
	}
	order := models.Order{
		UserID:        userID,
		AddressID:     uuid.New(),
		Total:         total,
		Status:        status,
		PaymentMethod: enums.PaymentMethodCard,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     createdAt.UTC(),
	}
	repo := NewRepository(db)
	_, err := repo.Create(context.Background(), &order)
	require.NoError(t, err)

	for i := range lines {
		lines[i].OrderID = order.ID
	}
	require.NoError(t, repo.CreateLines(context.Background(), lines))
	return order
}

func lineFor(p models.Product, qty int, size, color string) models.OrderLine {
	return models.OrderLine{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.EffectivePrice(),
		Size:      size,
		Color:     color,
	}
}
