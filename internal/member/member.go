package member

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/apperr"
)

// Member is a person whose attendance is tracked.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists members. GetMember returns nil, nil for an unknown id.
type Store interface {
	CreateMember(ctx context.Context, m Member) error
	UpdateMember(ctx context.Context, m Member) error
	DeleteMember(ctx context.Context, id string) error
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	CountMembers(ctx context.Context) (int, error)
}

// Service validates member input and delegates persistence.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create registers a member. An empty email is stored as NULL.
func (s *Service) Create(ctx context.Context, name, email string) (Member, error) {
	name, err := cleanName(name)
	if err != nil {
		return Member{}, err
	}
	now := s.now().UTC()
	m := Member{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     optional(email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Update replaces name and email of an existing member and bumps UpdatedAt.
func (s *Service) Update(ctx context.Context, id, name, email string) (Member, error) {
	name, err := cleanName(name)
	if err != nil {
		return Member{}, err
	}
	m, err := s.Get(ctx, id)
	if err != nil {
		return Member{}, err
	}
	m.Name = name
	m.Email = optional(email)
	m.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

// Delete removes a member together with every attendance record of that member.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.ErrMemberNotFound
	}
	return s.store.DeleteMember(ctx, id)
}

// Get returns a member or ErrMemberNotFound.
func (s *Service) Get(ctx context.Context, id string) (Member, error) {
	if strings.TrimSpace(id) == "" {
		return Member{}, apperr.ErrMemberNotFound
	}
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if m == nil {
		return Member{}, apperr.ErrMemberNotFound
	}
	return *m, nil
}

// List returns all members ordered by name.
func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.store.ListMembers(ctx)
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	return name, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
