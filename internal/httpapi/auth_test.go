package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"manager": {
				Username:  "manager",
				Password:  "manager123",
				Role:      domain.RoleManager,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	manager := NewAuthManager("test-secret", time.Hour, "739154", store)
	_, err := manager.Login(domain.LoginRequest{
		Username: "manager",
		Password: "manager123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Password == "manager123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestCreateAccountStoresPasswordHash(t *testing.T) {
	store := &userStoreStub{users: map[string]domain.UserAccount{}}

	manager := NewAuthManager("test-secret", time.Hour, "739154", store)
	account, err := manager.CreateAccount(domain.AccountCreateRequest{
		Username: "counter2",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if account.Username != "counter2" {
		t.Fatalf("unexpected username %s", account.Username)
	}
	if account.Role != domain.RoleCounter {
		t.Fatalf("expected default role counter, got %s", account.Role)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	var found *domain.UserAccount
	for i := range users {
		if users[i].Username == "counter2" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected account to be saved")
	}
	if found.Password == "pass1234" {
		t.Fatalf("expected account password to be hashed")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}

	_, err = manager.Login(domain.LoginRequest{
		Username: "counter2",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("login with hashed account failed: %v", err)
	}
}

func TestCreateAccountRejectsUnknownRole(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, "739154", &userStoreStub{})
	_, err := manager.CreateAccount(domain.AccountCreateRequest{
		Username: "runnerboy",
		Password: "pass1234",
		Role:     "runner",
	})
	if err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestManagerPINIsHashedAndStillValidates(t *testing.T) {
	store := &userStoreStub{users: map[string]domain.UserAccount{}}
	manager := NewAuthManager("test-secret", time.Hour, "654321", store)

	if manager.managerPIN == "654321" {
		t.Fatalf("expected manager pin to be stored as hash, got plain-text")
	}

	if !manager.ValidateManagerPIN("654321") {
		t.Fatalf("expected manager pin validation to succeed")
	}

	if manager.ValidateManagerPIN("111111") {
		t.Fatalf("expected wrong manager pin to fail")
	}
}
