package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"lessonbook/internal/domain"
	"lessonbook/internal/repository"

	"go.uber.org/zap"
)

type mockSlotStore struct {
	slots     map[int64]*domain.AvailabilitySlot
	nextID    int64
	createErr error
}

func newMockSlotStore() *mockSlotStore {
	return &mockSlotStore{slots: make(map[int64]*domain.AvailabilitySlot), nextID: 1}
}

func (m *mockSlotStore) Create(ctx context.Context, s *domain.AvailabilitySlot) error {
	if m.createErr != nil {
		return m.createErr
	}
	s.ID = m.nextID
	m.nextID++
	cp := *s
	m.slots[s.ID] = &cp
	return nil
}

func (m *mockSlotStore) GetByID(ctx context.Context, id int64) (*domain.AvailabilitySlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *s
	return &cp, nil
}

func (m *mockSlotStore) ListForTeacher(ctx context.Context, teacherID int64, from, to time.Time, onlyAvailable bool) ([]domain.AvailabilitySlot, error) {
	var out []domain.AvailabilitySlot
	for _, s := range m.slots {
		if s.TeacherID != teacherID {
			continue
		}
		if onlyAvailable && s.Status != domain.SlotAvailable {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSlotStore) MarkUnavailable(ctx context.Context, teacherID, slotID int64) (bool, error) {
	s, ok := m.slots[slotID]
	if !ok || s.TeacherID != teacherID || s.Status != domain.SlotAvailable {
		return false, nil
	}
	s.Status = domain.SlotUnavailable
	return true, nil
}

type mockTeacherReader struct {
	users map[int64]*domain.User
}

func (m *mockTeacherReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func testTeachers() *mockTeacherReader {
	return &mockTeacherReader{users: map[int64]*domain.User{
		10: {ID: 10, Role: domain.RoleTeacher, HourlyRateMinor: 15000},
		5:  {ID: 5, Role: domain.RoleStudent},
	}}
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}

func TestPublishSlotsFreezesPriceFromRate(t *testing.T) {
	store := newMockSlotStore()
	svc := NewService(store, testTeachers(), zap.NewNop())
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}

	slots, err := svc.PublishSlots(context.Background(), teacher, PublishSlotsRequest{
		Date: tomorrow(),
		Windows: []SlotWindow{
			{Start: "09:00", End: "10:00"},
			{Start: "10:00", End: "10:30"},
		},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].PriceMinor != 15000 {
		t.Fatalf("hour slot must cost the hourly rate, got %d", slots[0].PriceMinor)
	}
	if slots[1].PriceMinor != 7500 {
		t.Fatalf("half-hour slot must cost half the rate, got %d", slots[1].PriceMinor)
	}
}

func TestPublishSlotsForbiddenForOtherTeacher(t *testing.T) {
	svc := NewService(newMockSlotStore(), testTeachers(), zap.NewNop())
	teacher := domain.Actor{ID: 99, Role: domain.RoleTeacher}

	_, err := svc.PublishSlots(context.Background(), teacher, PublishSlotsRequest{
		TeacherID: 10,
		Date:      tomorrow(),
		Windows:   []SlotWindow{{Start: "09:00", End: "10:00"}},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPublishSlotsRejectsNonTeacherTarget(t *testing.T) {
	svc := NewService(newMockSlotStore(), testTeachers(), zap.NewNop())
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	_, err := svc.PublishSlots(context.Background(), admin, PublishSlotsRequest{
		TeacherID: 5, // a student
		Date:      tomorrow(),
		Windows:   []SlotWindow{{Start: "09:00", End: "10:00"}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPublishSlotsDuplicateWindow(t *testing.T) {
	store := newMockSlotStore()
	store.createErr = repository.ErrSlotTaken
	svc := NewService(store, testTeachers(), zap.NewNop())
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}

	_, err := svc.PublishSlots(context.Background(), teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "09:00", End: "10:00"}},
	})
	if !errors.Is(err, ErrSlotExists) {
		t.Fatalf("expected ErrSlotExists, got %v", err)
	}
}

func TestPublishSlotsRejectsOverlap(t *testing.T) {
	store := newMockSlotStore()
	svc := NewService(store, testTeachers(), zap.NewNop())
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}
	ctx := context.Background()

	if _, err := svc.PublishSlots(ctx, teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "09:00", End: "10:00"}},
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// overlaps a published slot
	_, err := svc.PublishSlots(ctx, teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "09:30", End: "10:30"}},
	})
	if !errors.Is(err, ErrSlotExists) {
		t.Fatalf("expected ErrSlotExists, got %v", err)
	}

	// overlapping windows within one request
	_, err = svc.PublishSlots(ctx, teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "12:00", End: "13:00"}, {Start: "12:30", End: "13:30"}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	// back to back is fine
	if _, err := svc.PublishSlots(ctx, teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "10:00", End: "11:00"}},
	}); err != nil {
		t.Fatalf("adjacent window rejected: %v", err)
	}
}

func TestPublishSlotsRejectsBackwardsWindow(t *testing.T) {
	svc := NewService(newMockSlotStore(), testTeachers(), zap.NewNop())
	teacher := domain.Actor{ID: 10, Role: domain.RoleTeacher}

	_, err := svc.PublishSlots(context.Background(), teacher, PublishSlotsRequest{
		Date:    tomorrow(),
		Windows: []SlotWindow{{Start: "10:00", End: "09:00"}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestWithdrawBookedSlotProtected(t *testing.T) {
	store := newMockSlotStore()
	bid := int64(7)
	store.slots[1] = &domain.AvailabilitySlot{ID: 1, TeacherID: 10, Status: domain.SlotBooked, BookingID: &bid}
	store.nextID = 2
	svc := NewService(store, testTeachers(), zap.NewNop())

	err := svc.Withdraw(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for booked slot, got %v", err)
	}
	if store.slots[1].Status != domain.SlotBooked {
		t.Fatalf("booked slot must stay booked")
	}
}

func TestWithdrawOwnSlot(t *testing.T) {
	store := newMockSlotStore()
	store.slots[1] = &domain.AvailabilitySlot{ID: 1, TeacherID: 10, Status: domain.SlotAvailable}
	store.nextID = 2
	svc := NewService(store, testTeachers(), zap.NewNop())

	if err := svc.Withdraw(context.Background(), domain.Actor{ID: 10, Role: domain.RoleTeacher}, 1); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if store.slots[1].Status != domain.SlotUnavailable {
		t.Fatalf("expected unavailable, got %s", store.slots[1].Status)
	}

	err := svc.Withdraw(context.Background(), domain.Actor{ID: 99, Role: domain.RoleTeacher}, 1)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign slot, got %v", err)
	}
}
