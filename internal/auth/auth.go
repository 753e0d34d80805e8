package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/example/quizmaster/internal/database"
	"github.com/example/quizmaster/internal/securestore"
	"github.com/example/quizmaster/pkg/models"
)

// userIDKey is the single secure-store key marking the signed-in user.
const userIDKey = "userId"

var (
	// ErrUserNotFound is returned by Login when no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredential is returned by Login on a password mismatch.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUserAlreadyExists is returned by Signup for a taken email.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Manager holds at most one signed-in user in memory, mirrored to the secure
// userId marker so the identity survives process restarts. Credential checks
// are delegated to the user repository; passwords are compared via bcrypt,
// never by equality.
type Manager struct {
	users     *database.UserRepository
	analytics *database.AnalyticsRepository
	store     securestore.Store

	mu      sync.Mutex
	current *models.User
}

// NewManager creates an auth manager with injected dependencies.
func NewManager(users *database.UserRepository, analytics *database.AnalyticsRepository, store securestore.Store) *Manager {
	return &Manager{
		users:     users,
		analytics: analytics,
		store:     store,
	}
}

// LoadUser restores the identity persisted by a previous run. A missing or
// stale marker simply leaves the manager signed out.
func (m *Manager) LoadUser(ctx context.Context) error {
	userID, err := m.store.Get(userIDKey)
	if errors.Is(err, securestore.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user marker: %w", err)
	}

	user, err := m.users.GetByID(ctx, userID)
	if errors.Is(err, database.ErrUserNotFound) {
		log.Printf("Stored user %s no longer exists, clearing marker", userID)
		return m.store.Delete(userIDKey)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()
	return nil
}

// Login verifies the credential and signs the user in.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	record, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	user := identityOf(record)
	if err := m.store.Set(userIDKey, user.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()
	return user, nil
}

// Signup creates the account, its empty analytics row and signs the user in.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	if _, err := m.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := m.users.Create(ctx, record); err != nil {
		return nil, err
	}
	if err := m.analytics.Init(ctx, record.ID); err != nil {
		return nil, err
	}

	user := identityOf(record)
	if err := m.store.Set(userIDKey, user.ID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()
	return user, nil
}

// Logout clears both the marker and the in-memory identity.
func (m *Manager) Logout() error {
	if err := m.store.Delete(userIDKey); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return nil
}

// CurrentUser returns the signed-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// identityOf strips the credential hash so it never reaches session state.
func identityOf(record *models.User) *models.User {
	return &models.User{
		ID:        record.ID,
		Name:      record.Name,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
	}
}
