// Package session keeps the logged-in user's token and profile between CLI runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"salesdesk/api"
)

// RoleAdmin is the role name of administrators.
const RoleAdmin = "ADMIN"

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (api.AuthResponse, error)
}

type record struct {
	Token string        `json:"token"`
	User  *api.AuthUser `json:"usuario,omitempty"`
}

// Store is a file-backed session. The zero value is not usable; call Open.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time

	mu  sync.RWMutex
	rec record
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the session stored at path. A missing file is an empty session.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.rec); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

// Path is the file backing the session.
func (s *Store) Path() string {
	return s.path
}

// Login authenticates and persists the returned token and user.
func (s *Store) Login(ctx context.Context, auth Authenticator, username, password string) (api.AuthUser, error) {
	resp, err := auth.Login(ctx, username, password)
	if err != nil {
		return api.AuthUser{}, err
	}
	user := resp.User
	if err := s.Save(resp.Token, &user); err != nil {
		return api.AuthUser{}, err
	}
	s.logger.Info("logged in", zap.String("username", user.Username), zap.Int64("user_id", user.ID))
	return user, nil
}

// Save replaces the stored session. A nil user stores the token alone.
func (s *Store) Save(token string, user *api.AuthUser) error {
	rec := record{Token: token, User: user}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

// Logout forgets the token and user.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.rec = record{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session %s: %w", s.path, err)
	}
	return nil
}

// Token returns the stored bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.Token
}

// IsLoggedIn reports whether a token is stored and, when it is a JWT with an
// expiry, not yet expired.
func (s *Store) IsLoggedIn() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	claims, ok := parseClaims(token)
	if !ok {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return s.now().Before(exp.Time)
}

// CurrentUser returns the stored user profile.
func (s *Store) CurrentUser() (api.AuthUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec.User == nil {
		return api.AuthUser{}, false
	}
	return *s.rec.User, true
}

// CurrentUserID returns the id of the logged-in user. When the profile is
// missing it falls back to an "id" or "userId" claim of the token.
func (s *Store) CurrentUserID() (int64, bool) {
	if u, ok := s.CurrentUser(); ok && u.ID > 0 {
		return u.ID, true
	}
	token := s.Token()
	if token == "" {
		return 0, false
	}
	s.logger.Warn("user profile missing from session, reading id from token")
	claims, ok := parseClaims(token)
	if !ok {
		return 0, false
	}
	for _, key := range []string{"id", "userId"} {
		if id, ok := numericClaim(claims[key]); ok && id > 0 {
			return id, true
		}
	}
	return 0, false
}

// HasRole reports whether the stored user has role.
func (s *Store) HasRole(role string) bool {
	u, ok := s.CurrentUser()
	return ok && u.Role == role
}

// IsAdmin reports whether the stored user is an administrator.
func (s *Store) IsAdmin() bool {
	return s.HasRole(RoleAdmin)
}

// parseClaims reads the claims without verifying the signature; the server
// remains the authority on the token.
func parseClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func numericClaim(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
