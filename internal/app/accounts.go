package app

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/avern/huddle/internal/domain"
)

// AccountStore is the in-memory user-record collaborator. It never touches
// signaling state; the core identifies participants by connection handle.
type AccountStore struct {
	mu      sync.RWMutex
	byID    map[domain.AccountID]*domain.Account
	byEmail map[string]domain.AccountID
	byName  map[string]domain.AccountID
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byID:    make(map[domain.AccountID]*domain.Account),
		byEmail: make(map[string]domain.AccountID),
		byName:  make(map[string]domain.AccountID),
	}
}

// Create registers a new account with a bcrypt-hashed password.
func (s *AccountStore) Create(username, email, password string) (*domain.Account, error) {
	a, err := domain.NewAccount(username, email)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a.PasswordHash = hash

	emailKey := strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[emailKey]; ok {
		return nil, domain.ErrAccountExists
	}
	if _, ok := s.byName[username]; ok {
		return nil, domain.ErrAccountExists
	}
	s.byID[a.ID] = a
	s.byEmail[emailKey] = a.ID
	s.byName[username] = a.ID
	return a, nil
}

// Authenticate verifies an email/password pair. The error is the same for an
// unknown email and a wrong password.
func (s *AccountStore) Authenticate(email, password string) (*domain.Account, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(email)]
	var a *domain.Account
	if ok {
		a = s.byID[id]
	}
	s.mu.RUnlock()
	if a == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return a, nil
}

func (s *AccountStore) Get(id domain.AccountID) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return a, ok
}
