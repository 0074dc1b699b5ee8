package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kickfinderz-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestListByUserNewestFirstWithLines(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	userID := uuid.New()
	jordan := seedProduct(t, db, "Air Jordan 1", "199.99")
	dunk := seedProduct(t, db, "Dunk Low", "110.00")

	now := time.Now().UTC()
	older := seedOrder(t, db, userID, enums.OrderStatusDelivered, now.Add(-48*time.Hour), lineFor(dunk, 1, "US 10", "White"))
	newer := seedOrder(t, db, userID, enums.OrderStatusProcessing, now.Add(-time.Hour),
		lineFor(jordan, 2, "US 9", "Black"),
		lineFor(dunk, 1, "US 9", "Panda"),
	)
	seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, now, lineFor(jordan, 1, "US 8", "Red"))

	orders, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)

	require.Len(t, orders[0].Lines, 2)
	for _, line := range orders[0].Lines {
		require.NotNil(t, line.Product)
	}
	assert.Equal(t, "509.98", orders[0].Total.StringFixed(2))
}

func TestUpdateStatusGuardsCurrentStatus(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, time.Now())

	require.NoError(t, repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusProcessing, enums.OrderStatusShipped))

	err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusProcessing, enums.OrderStatusCancelled)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, got.Status)
}

func TestFindOrphansBefore(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	p := seedProduct(t, db, "Gel-Kayano 14", "150.00")
	now := time.Now().UTC()

	orphan := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, now.Add(-3*time.Hour))
	seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, now.Add(-3*time.Hour), lineFor(p, 1, "US 9", "Cream"))
	seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, now.Add(-time.Minute))
	seedOrder(t, db, uuid.New(), enums.OrderStatusCancelled, now.Add(-3*time.Hour))

	found, err := repo.FindOrphansBefore(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, orphan.ID, found[0].ID)

	changed, err := repo.CancelOrphan(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.CancelOrphan(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.False(t, changed, "already cancelled")
}

func TestSetProcessingRef(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	order := seedOrder(t, db, uuid.New(), enums.OrderStatusProcessing, time.Now())

	require.NoError(t, repo.SetProcessingRef(context.Background(), order.ID, "msg-42"))

	got, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProcessingRef)
	assert.Equal(t, "msg-42", *got.ProcessingRef)
}
