package client

import (
	"context"
	"errors"
	"sync"
)

type AuthState int

const (
	LoggedOut AuthState = iota
	Authenticating
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "logged_out"
	}
}

var ErrAuthInProgress = errors.New("authentication already in progress")

// Auth is the session state machine. Any 401 seen by the underlying
// client drops it back to LoggedOut.
type Auth struct {
	api *Client

	mu      sync.Mutex
	state   AuthState
	session *Session
}

func NewAuth(api *Client) *Auth {
	a := &Auth{api: api}
	api.OnUnauthorized(a.reset)
	return a
}

func (a *Auth) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = LoggedOut
	a.session = nil
}

func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// User returns the logged-in student, or nil.
func (a *Auth) User() *User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	u := *a.session.User
	return &u
}

// Boot restores a saved session. A half-written or unreadable session is
// discarded and the state stays LoggedOut.
func (a *Auth) Boot() AuthState {
	s, err := a.api.storage.Load()
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil || !s.Valid() {
		_ = a.api.storage.Clear()
		a.state, a.session = LoggedOut, nil
		return a.state
	}
	a.state, a.session = Authenticated, s
	return a.state
}

func (a *Auth) Login(ctx context.Context, carnet, password string) error {
	return a.authenticate(func() (*Session, error) {
		return a.api.Login(ctx, carnet, password)
	})
}

func (a *Auth) Register(ctx context.Context, carnet, password string) error {
	return a.authenticate(func() (*Session, error) {
		return a.api.Register(ctx, carnet, password)
	})
}

func (a *Auth) authenticate(call func() (*Session, error)) error {
	a.mu.Lock()
	if a.state == Authenticating {
		a.mu.Unlock()
		return ErrAuthInProgress
	}
	a.state = Authenticating
	a.mu.Unlock()

	s, err := call()
	if err == nil && !s.Valid() {
		err = errors.New("server returned an incomplete session")
	}
	if err == nil {
		err = a.api.storage.Save(s)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state, a.session = LoggedOut, nil
		return err
	}
	a.state, a.session = Authenticated, s
	return nil
}

// Logout tells the server, then forgets the session whatever it answered.
func (a *Auth) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	clearErr := a.api.storage.Clear()
	a.reset()
	if errors.Is(err, ErrUnauthorized) {
		err = nil
	}
	if err != nil {
		return err
	}
	return clearErr
}
