package admin

import (
	"context"
	"time"
)

// User is an account that can sign in to the dashboard.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is a signed-in device. Only the hash of its refresh token is stored.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Store persists users, credentials and sessions.
//
// DeleteAdmin and BootstrapAdmin own the at-least-one-admin rule: DeleteAdmin must recount the
// admins and delete in one serialized step (ErrLastAdmin when at most one remains, ErrAdminNotFound
// when id is not an admin); BootstrapAdmin must fail with ErrAdminExists once any admin exists.
type Store interface {
	CreateAdmin(ctx context.Context, u User, passwordHash string) error
	BootstrapAdmin(ctx context.Context, u User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	PasswordHash(ctx context.Context, userID string) (string, error)
	ListAdmins(ctx context.Context) ([]User, error)
	CountAdmins(ctx context.Context) (int, error)
	DeleteAdmin(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s Session) error
	SessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	// DeleteSession reports whether a session was removed.
	DeleteSession(ctx context.Context, id string) (bool, error)
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
