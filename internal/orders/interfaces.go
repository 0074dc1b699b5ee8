package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders and order_lines tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) error
	SetProcessingRef(ctx context.Context, orderID uuid.UUID, ref string) error
	FindOrphansBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	CancelOrphan(ctx context.Context, orderID uuid.UUID) (bool, error)
}
