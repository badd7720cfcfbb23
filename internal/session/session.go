// Package session holds the authentication token and the signed-in user.
// The token lives in durable storage and is read back before every
// request, so clearing the store signs out every component at once.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/store"
	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned by operations that need a session
var ErrNotLoggedIn = errors.New("not logged in, run 'ironboard auth login'")

// Store is the durable key/value storage behind a session
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Client is the subset of the API client the session drives
type Client interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, username, email, password string) error
	Me(ctx context.Context) (*model.User, error)
	SetAuth(tokens api.TokenSource, onUnauthorized func(ctx context.Context))
}

// Session is the process-wide authentication state
type Session struct {
	store  Store
	client Client
	log    *logger.Logger

	mu        sync.RWMutex
	user      *model.User
	listeners []func(*model.User)
}

// New binds a session to its storage and installs it as the client's
// token source. A 401 on any authenticated request clears the session.
func New(st Store, client Client) *Session {
	s := &Session{store: st, client: client, log: logger.Default()}
	client.SetAuth(s, func(ctx context.Context) {
		s.log.Warn("Session rejected by server, clearing")
		if err := s.Clear(ctx); err != nil {
			s.log.Error("Failed to clear session", logger.F("error", err))
		}
	})
	return s
}

// SetLogger replaces the session's logger
func (s *Session) SetLogger(l *logger.Logger) {
	s.log = l
}

// OnChange registers fn to run whenever the signed-in user changes.
// fn receives nil on sign-out.
func (s *Session) OnChange(fn func(*model.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Initialize restores the session from storage. An expired token is
// discarded. A token without a cached user is checked against /me.
func (s *Session) Initialize(ctx context.Context) error {
	token := s.Token(ctx)
	if token == "" {
		s.setUser(nil)
		return nil
	}

	if exp := expiry(token); !exp.IsZero() && time.Now().After(exp) {
		s.log.Info("Stored token expired", logger.F("expired_at", exp.Format(time.RFC3339)))
		return s.Clear(ctx)
	}

	raw, err := s.store.Get(ctx, store.KeyUser)
	switch {
	case err == nil:
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			s.log.Warn("Discarding unreadable cached user", logger.F("error", err))
			return s.Refresh(ctx)
		}
		s.setUser(&u)
		return nil
	case errors.Is(err, store.ErrNotFound):
		return s.Refresh(ctx)
	default:
		return fmt.Errorf("failed to load user: %w", err)
	}
}

// Login authenticates and persists the token and user
func (s *Session) Login(ctx context.Context, email, password string) (*model.User, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	if err := s.persist(ctx, res.Token, &res.User); err != nil {
		return nil, err
	}
	s.log.Info("Logged in", logger.F("user", res.User.ID))
	return &res.User, nil
}

// Register creates an account and then logs in with it
func (s *Session) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	if err := s.client.Register(ctx, username, email, password); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// Logout signs out locally. The API has no server-side logout.
func (s *Session) Logout(ctx context.Context) error {
	s.log.Info("Logged out")
	return s.Clear(ctx)
}

// Clear removes the token and user from storage and memory
func (s *Session) Clear(ctx context.Context) error {
	err := s.store.Delete(ctx, store.KeyToken, store.KeyUser)
	s.setUser(nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Refresh reloads the signed-in user from the server
func (s *Session) Refresh(ctx context.Context) error {
	if s.Token(ctx) == "" {
		return ErrNotLoggedIn
	}
	u, err := s.client.Me(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyUser, string(data)); err != nil {
		return err
	}
	s.setUser(u)
	return nil
}

// Token returns the stored bearer token, or "" when signed out
func (s *Session) Token(ctx context.Context) string {
	token, err := s.store.Get(ctx, store.KeyToken)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("Failed to read token", logger.F("error", err))
		}
		return ""
	}
	return token
}

// User returns a copy of the signed-in user, or nil
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LoggedIn reports whether a user is signed in
func (s *Session) LoggedIn() bool {
	return s.User() != nil
}

// ExpiresAt returns the token's exp claim. It is zero when signed out
// or when the token is not a JWT.
func (s *Session) ExpiresAt(ctx context.Context) time.Time {
	return expiry(s.Token(ctx))
}

func (s *Session) persist(ctx context.Context, token string, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyToken, token); err != nil {
		return err
	}
	if err := s.store.Set(ctx, store.KeyUser, string(data)); err != nil {
		return err
	}
	cp := *u
	s.setUser(&cp)
	return nil
}

func (s *Session) setUser(u *model.User) {
	s.mu.Lock()
	prev := s.user
	s.user = u
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if sameUser(prev, u) {
		return
	}
	for _, fn := range listeners {
		fn(u)
	}
}

func sameUser(a, b *model.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

// expiry reads exp without verifying the signature; the server is the
// one that checks it
func expiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
