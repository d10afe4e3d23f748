package notify

import (
	"context"
	"testing"

	"lessonbook/internal/database"
	"lessonbook/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewService(NewRepository(db), NewHub(), zap.NewNop())
}

func TestEmitStoresInboxRow(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	err := svc.Emit(ctx, domain.Event{
		Type:        domain.EventBookingCreated,
		RecipientID: 10,
		Title:       "New booking request",
		Body:        "A student requested 2 session(s)",
		Data:        map[string]any{"booking_id": 1},
	})
	require.NoError(t, err)

	list, unread, err := svc.List(ctx, 10, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(1), unread)
	require.Equal(t, domain.EventBookingCreated, list[0].Type)
	require.JSONEq(t, `{"booking_id":1}`, string(list[0].Data))

	// another user's inbox stays empty
	list, unread, err = svc.List(ctx, 99, 20, 0)
	require.NoError(t, err)
	require.Empty(t, list)
	require.Zero(t, unread)
}

func TestMarkAsReadScopedToOwner(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	require.NoError(t, svc.Emit(ctx, domain.Event{Type: domain.EventPaymentCompleted, RecipientID: 10, Title: "Payment received"}))
	list, _, err := svc.List(ctx, 10, 20, 0)
	require.NoError(t, err)
	id := list[0].ID

	// someone else marking it read is a silent no-op
	require.NoError(t, svc.MarkAsRead(ctx, id, 99))
	_, unread, err := svc.List(ctx, 10, 20, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAsRead(ctx, id, 10))
	_, unread, err = svc.List(ctx, 10, 20, 0)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestMarkAllAsRead(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(ctx, domain.Event{Type: domain.EventBookingCancelled, RecipientID: 10, Title: "Booking cancelled"}))
	}
	require.NoError(t, svc.MarkAllAsRead(ctx, 10))

	_, unread, err := svc.List(ctx, 10, 20, 0)
	require.NoError(t, err)
	require.Zero(t, unread)
}
