package cart

import (
	"context"

	"github.com/angelmondragon/kickfinderz-backend/internal/repo"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const insertBatchSize = 100

// RemoteRepository is the remote cart table, addressed per user.
type RemoteRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.CartRow, error)
	Replace(ctx context.Context, userID uuid.UUID, rows []models.CartRow) error
}

// Repository persists cart rows with gorm.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns the user's rows in cart order.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.CartRow, error) {
	var rows []models.CartRow
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Replace deletes every row for the user and inserts rows. The two
// statements are not wrapped in a transaction; a failure between them leaves
// the user with no remote rows until the next successful sync.
func (r *Repository) Replace(ctx context.Context, userID uuid.UUID, rows []models.CartRow) error {
	if err := r.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartRow{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).CreateInBatches(rows, insertBatchSize).Error
}
