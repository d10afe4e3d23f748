package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"lessonbook/internal/domain"
	jwtsvc "lessonbook/internal/pkg/jwt"

	"gorm.io/gorm"
)

type mockUserStore struct {
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func newTestService() (*Service, *jwtsvc.Service) {
	j := jwtsvc.New("test_secret_key_32_characters_min", time.Hour)
	return NewService(newMockUserStore(), j), j
}

func TestRegisterAndLogin(t *testing.T) {
	svc, j := newTestService()

	res, err := svc.Register(context.Background(), RegisterRequest{
		Email:           "noura@example.com",
		Password:        "password123",
		Name:            "Noura",
		Role:            "teacher",
		HourlyRateMinor: 15000,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if res.User.PasswordHash == "password123" {
		t.Fatalf("password must be hashed")
	}

	claims, err := j.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.UserID != res.User.ID || claims.Role != "teacher" {
		t.Fatalf("claims do not match user: %+v", claims)
	}

	login, err := svc.Login(context.Background(), LoginRequest{Email: "noura@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.User.ID != res.User.ID {
		t.Fatalf("login returned wrong user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()

	req := RegisterRequest{Email: "omar@example.com", Password: "password123", Name: "Omar", Role: "student"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterTeacherRequiresRate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "faisal@example.com", Password: "password123", Name: "Faisal", Role: "teacher",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	svc.Register(context.Background(), RegisterRequest{
		Email: "sara@example.com", Password: "password123", Name: "Sara", Role: "student",
	})

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "sara@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
