package repository

import (
	"context"
	"testing"
	"time"

	"lessonbook/internal/database"
	"lessonbook/internal/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedSlots(t *testing.T, repo *SlotRepository, teacherID int64, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	base := time.Now().UTC().AddDate(0, 0, 1).Truncate(time.Hour)
	for i := 0; i < n; i++ {
		s := &domain.AvailabilitySlot{
			TeacherID:  teacherID,
			Date:       base.Format("2006-01-02"),
			StartTime:  base.Add(time.Duration(i) * time.Hour),
			EndTime:    base.Add(time.Duration(i+1) * time.Hour),
			Status:     domain.SlotAvailable,
			PriceMinor: 15000,
		}
		require.NoError(t, repo.Create(context.Background(), s))
		ids = append(ids, s.ID)
	}
	return ids
}

func TestSlotCreateDuplicateWindow(t *testing.T) {
	repo := NewSlotRepository(testDB(t))
	start := time.Now().UTC().AddDate(0, 0, 1).Truncate(time.Hour)

	slot := func() *domain.AvailabilitySlot {
		return &domain.AvailabilitySlot{
			TeacherID:  10,
			Date:       start.Format("2006-01-02"),
			StartTime:  start,
			EndTime:    start.Add(time.Hour),
			Status:     domain.SlotAvailable,
			PriceMinor: 15000,
		}
	}
	require.NoError(t, repo.Create(context.Background(), slot()))

	err := repo.Create(context.Background(), slot())
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestReserveAllOrNothing(t *testing.T) {
	db := testDB(t)
	repo := NewSlotRepository(db)
	ids := seedSlots(t, repo, 10, 3)
	ctx := context.Background()

	// first booking takes the middle slot
	require.NoError(t, repo.Reserve(ctx, 10, ids[1:2], 100))

	// second booking wants all three; must get nothing and learn the loser
	err := repo.Reserve(ctx, 10, ids, 200)
	var conflict *ReservationConflict
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, []int64{ids[1]}, conflict.SlotIDs)

	// the other two slots must still be available, untouched by the rollback
	slots, err := repo.GetByIDs(ctx, ids)
	require.NoError(t, err)
	for _, s := range slots {
		if s.ID == ids[1] {
			require.Equal(t, domain.SlotBooked, s.Status)
			require.Equal(t, int64(100), *s.BookingID)
			continue
		}
		require.Equal(t, domain.SlotAvailable, s.Status)
		require.Nil(t, s.BookingID)
	}
}

func TestReserveWrongTeacherLoses(t *testing.T) {
	repo := NewSlotRepository(testDB(t))
	ids := seedSlots(t, repo, 10, 1)

	err := repo.Reserve(context.Background(), 99, ids, 100)
	var conflict *ReservationConflict
	require.ErrorAs(t, err, &conflict)
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := NewSlotRepository(testDB(t))
	ids := seedSlots(t, repo, 10, 2)
	ctx := context.Background()

	require.NoError(t, repo.Reserve(ctx, 10, ids, 100))
	require.NoError(t, repo.Release(ctx, 100))
	require.NoError(t, repo.Release(ctx, 100)) // no-op

	slots, err := repo.GetByIDs(ctx, ids)
	require.NoError(t, err)
	for _, s := range slots {
		require.Equal(t, domain.SlotAvailable, s.Status)
		require.Nil(t, s.BookingID)
	}

	// released slots can be reserved again
	require.NoError(t, repo.Reserve(ctx, 10, ids, 200))
}

func TestMarkUnavailableOnlyWhenFree(t *testing.T) {
	repo := NewSlotRepository(testDB(t))
	ids := seedSlots(t, repo, 10, 2)
	ctx := context.Background()

	ok, err := repo.MarkUnavailable(ctx, 10, ids[0])
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Reserve(ctx, 10, ids[1:], 100))
	ok, err = repo.MarkUnavailable(ctx, 10, ids[1])
	require.NoError(t, err)
	require.False(t, ok)
}
