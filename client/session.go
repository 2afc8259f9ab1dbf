package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/mlezi/darasa/core/user"
)

// SessionState is the client-side authentication state. Expired and
// logged-out sessions collapse straight back to Anonymous; the intermediate
// states are not observable.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticating
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session holds the current user and bearer token and exposes role
// predicates. The token itself lives on the Gateway so every call carries
// it. Safe for concurrent use.
type Session struct {
	gw *Gateway

	mutex sync.RWMutex
	state SessionState
	usr   user.User
}

func NewSession(gw *Gateway) *Session {
	return &Session{gw: gw}
}

func (s *Session) State() SessionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state
}

func (s *Session) User() user.User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.usr
}

func (s *Session) Token() string { return s.gw.Token() }

func (s *Session) IsAuthenticated() bool { return s.State() == Authenticated }
func (s *Session) IsStudent() bool       { u := s.User(); return s.IsAuthenticated() && u.IsStudent() }
func (s *Session) IsTeacher() bool       { u := s.User(); return s.IsAuthenticated() && u.IsTeacher() }
func (s *Session) IsAdmin() bool         { u := s.User(); return s.IsAuthenticated() && u.IsAdmin() }

// Login exchanges credentials for a token. On failure the session stays
// Anonymous with no stored credentials.
func (s *Session) Login(ctx context.Context, email, password string) error {
	s.setState(Authenticating)

	res, err := s.gw.Login(ctx, email, password)
	if err != nil {
		s.clear()
		return errors.Wrap(err, "logging in")
	}

	s.gw.SetToken(res.Token)
	s.mutex.Lock()
	s.usr = res.User
	s.state = Authenticated
	s.mutex.Unlock()
	return nil
}

// Validate re-checks the stored token against the API. A rejected token
// forces Anonymous and clears the stored credentials (cascading logout);
// network and server failures leave the session untouched so a flaky
// connection does not log the user out.
func (s *Session) Validate(ctx context.Context) error {
	if s.gw.Token() == "" {
		s.clear()
		return ErrUnauthorized
	}

	usr, err := s.gw.ValidateToken(ctx)
	if err != nil {
		if cause := errors.Cause(err); cause == ErrUnauthorized || cause == ErrForbidden {
			s.clear()
		}
		return errors.Wrap(err, "validating token")
	}

	s.mutex.Lock()
	s.usr = usr
	s.state = Authenticated
	s.mutex.Unlock()
	return nil
}

// Logout clears the token and identity unconditionally. Idempotent.
func (s *Session) Logout() {
	s.clear()
}

func (s *Session) setState(state SessionState) {
	s.mutex.Lock()
	s.state = state
	s.mutex.Unlock()
}

func (s *Session) clear() {
	s.gw.ClearToken()
	s.mutex.Lock()
	s.usr = user.User{}
	s.state = Anonymous
	s.mutex.Unlock()
}
