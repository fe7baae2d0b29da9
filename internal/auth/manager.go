package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/admin"
	"rollcall/internal/apperr"
)

// RoleAdmin is the only role the dashboard issues tokens for.
const RoleAdmin = "admin"

// AdminDirectory resolves and verifies admin accounts.
type AdminDirectory interface {
	Authenticate(ctx context.Context, email, password string) (admin.User, error)
	Get(ctx context.Context, id string) (admin.User, error)
}

// SessionStore persists refresh sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s admin.Session) error
	SessionByTokenHash(ctx context.Context, tokenHash string) (*admin.Session, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
}

// Options configures token issuance.
type Options struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager signs admins in and out and validates their access tokens.
type Manager struct {
	admins   AdminDirectory
	sessions SessionStore
	revoker  Revoker
	opts     Options
}

// NewManager creates a manager.
func NewManager(admins AdminDirectory, sessions SessionStore, revoker Revoker, opts Options) *Manager {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{admins: admins, sessions: sessions, revoker: revoker, opts: opts}
}

// Login verifies credentials and opens a session.
func (m *Manager) Login(ctx context.Context, email, password, ip, userAgent string) (TokenPair, admin.User, error) {
	u, err := m.admins.Authenticate(ctx, email, password)
	if err != nil {
		return TokenPair{}, admin.User{}, err
	}
	tokens, err := m.openSession(ctx, u.ID, ip, userAgent)
	if err != nil {
		return TokenPair{}, admin.User{}, err
	}
	log.Printf("admin %s signed in from %s", u.Email, ip)
	return tokens, u, nil
}

// Refresh exchanges a live refresh token for a new pair. The old session is consumed; of two
// concurrent refreshes with the same token only the one that deletes the session succeeds.
func (m *Manager) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (TokenPair, error) {
	claims, err := Parse(refreshToken, m.opts.SigningKey, m.opts.Issuer, KindRefresh)
	if err != nil {
		return TokenPair{}, apperr.ErrNotAuthenticated
	}
	sess, err := m.sessions.SessionByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return TokenPair{}, err
	}
	if sess == nil || sess.UserID != claims.Subject || sess.ExpiresAt.Before(time.Now()) {
		return TokenPair{}, apperr.ErrNotAuthenticated
	}
	if _, err := m.admins.Get(ctx, claims.Subject); err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return TokenPair{}, apperr.ErrNotAuthenticated
		}
		return TokenPair{}, err
	}
	consumed, err := m.sessions.DeleteSession(ctx, sess.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !consumed {
		return TokenPair{}, apperr.ErrNotAuthenticated
	}
	return m.openSession(ctx, claims.Subject, ip, userAgent)
}

// Logout revokes the access token and ends the session of refreshToken when it belongs to the same admin.
func (m *Manager) Logout(ctx context.Context, access Claims, refreshToken string) error {
	if access.ExpiresAt != nil {
		if err := m.revoker.Revoke(ctx, access.ID, access.ExpiresAt.Time); err != nil {
			return err
		}
	}
	if refreshToken == "" {
		return nil
	}
	sess, err := m.sessions.SessionByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return err
	}
	if sess == nil || sess.UserID != access.Subject {
		return nil
	}
	_, err = m.sessions.DeleteSession(ctx, sess.ID)
	return err
}

// Authenticate validates an access token and returns the admin it belongs to. Admins that were
// deleted since the token was issued are rejected.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (Claims, admin.User, error) {
	claims, err := Parse(accessToken, m.opts.SigningKey, m.opts.Issuer, KindAccess)
	if err != nil {
		return Claims{}, admin.User{}, apperr.ErrNotAuthenticated
	}
	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, admin.User{}, err
	}
	if revoked {
		return Claims{}, admin.User{}, apperr.ErrNotAuthenticated
	}
	u, err := m.admins.Get(ctx, claims.Subject)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return Claims{}, admin.User{}, apperr.ErrNotAuthorized
		}
		return Claims{}, admin.User{}, err
	}
	return claims, u, nil
}

func (m *Manager) openSession(ctx context.Context, userID, ip, userAgent string) (TokenPair, error) {
	tokens, err := Issue(userID, RoleAdmin, m.opts.Issuer, m.opts.SigningKey, m.opts.AccessTTL, m.opts.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	err = m.sessions.CreateSession(ctx, admin.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: HashToken(tokens.RefreshToken),
		ExpiresAt: tokens.RefreshExp.UTC(),
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return TokenPair{}, err
	}
	return tokens, nil
}

// HashToken is the stored form of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
