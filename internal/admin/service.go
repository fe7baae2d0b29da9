package admin

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rollcall/internal/apperr"
	"rollcall/internal/metrics"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// Service manages admin accounts and their credentials.
type Service struct {
	store    Store
	metrics  *metrics.Metrics
	now      func() time.Time
	hashCost int
}

// NewService creates a service backed by a store.
func NewService(store Store, m *metrics.Metrics) *Service {
	return &Service{store: store, metrics: m, now: time.Now, hashCost: bcrypt.DefaultCost}
}

// Create registers a new admin account.
func (s *Service) Create(ctx context.Context, name, email, password string) (User, error) {
	u, hash, err := s.prepare(ctx, name, email, password)
	if err != nil {
		return User{}, err
	}
	if err := s.store.CreateAdmin(ctx, u, hash); err != nil {
		return User{}, err
	}
	log.Printf("admin %s created", u.Email)
	s.metrics.AdminChanged("create")
	return u, nil
}

// Bootstrap creates the first admin. It fails once any admin exists.
func (s *Service) Bootstrap(ctx context.Context, name, email, password string) (User, error) {
	u, hash, err := s.prepare(ctx, name, email, password)
	if err != nil {
		return User{}, err
	}
	if err := s.store.BootstrapAdmin(ctx, u, hash); err != nil {
		return User{}, err
	}
	log.Printf("initial admin %s created", u.Email)
	s.metrics.AdminChanged("bootstrap")
	return u, nil
}

// NeedsSetup reports whether no admin exists yet.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	n, err := s.store.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Delete removes adminID on behalf of actorID. An admin can never delete their own account,
// and the last remaining admin can never be deleted.
func (s *Service) Delete(ctx context.Context, actorID, adminID string) error {
	if actorID == adminID {
		return apperr.ErrSelfDelete
	}
	if strings.TrimSpace(adminID) == "" {
		return apperr.ErrAdminNotFound
	}
	if err := s.store.DeleteAdmin(ctx, adminID); err != nil {
		return err
	}
	log.Printf("admin %s deleted by %s", adminID, actorID)
	s.metrics.AdminChanged("delete")
	return nil
}

// List returns all admins, newest first.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.ListAdmins(ctx)
}

// Get returns an admin by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u == nil || !u.IsAdmin {
		return User{}, apperr.ErrAdminNotFound
	}
	return *u, nil
}

// Authenticate verifies an admin's email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	if u == nil || !u.IsAdmin {
		return User{}, apperr.ErrInvalidCredentials
	}
	hash, err := s.store.PasswordHash(ctx, u.ID)
	if err != nil {
		return User{}, err
	}
	if hash == "" {
		return User{}, apperr.ErrInvalidCredentials
	}
	ok, err := checkPassword(hash, password)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, apperr.ErrInvalidCredentials
	}
	return *u, nil
}

// PurgeExpiredSessions deletes sessions past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.metrics.SessionsPurged(n)
	return n, nil
}

func (s *Service) prepare(ctx context.Context, name, email, password string) (User, string, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, "", apperr.Validation("all fields are required")
	}
	if !strings.Contains(email, "@") {
		return User{}, "", apperr.Validation("email is invalid")
	}
	if len(password) < MinPasswordLength {
		return User{}, "", apperr.Validation("password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return User{}, "", apperr.Validation("password must be at most 72 bytes")
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, "", err
	}
	if existing != nil {
		return User{}, "", apperr.ErrDuplicateEmail
	}

	hash, err := hashPassword(password, s.hashCost)
	if err != nil {
		return User{}, "", err
	}
	now := s.now().UTC()
	return User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsAdmin:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}, hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
