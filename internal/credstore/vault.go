package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNoStore       = errors.New("credstore: scope has no store configured")
	ErrScopeMismatch = errors.New("credstore: scope does not match session handle")
)

// Vault pairs the two scope stores.
type Vault struct {
	Persistent Store
	Ephemeral  Store
}

// Store returns the backend for scope.
func (v *Vault) Store(scope Scope) (Store, error) {
	var st Store
	switch scope {
	case ScopePersistent:
		st = v.Persistent
	case ScopeEphemeral:
		st = v.Ephemeral
	}
	if st == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoStore, scope)
	}
	return st, nil
}

// Session binds a handle to the vault.
func (v *Vault) Session(h Handle) *Session {
	return &Session{vault: v, handle: h}
}

// Open mints a handle pinned to scope and writes the login into it.
func (v *Vault) Open(ctx context.Context, scope Scope, l Login) (*Session, error) {
	s := v.Session(NewHandle(scope))
	if err := s.SaveLogin(ctx, scope, l); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping checks both scopes.
func (v *Vault) Ping(ctx context.Context) error {
	var errs []error
	for _, scope := range []Scope{ScopePersistent, ScopeEphemeral} {
		st, err := v.Store(scope)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := st.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scope, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes both scopes.
func (v *Vault) Close() error {
	var errs []error
	if v.Persistent != nil {
		errs = append(errs, v.Persistent.Close())
	}
	if v.Ephemeral != nil {
		errs = append(errs, v.Ephemeral.Close())
	}
	return errors.Join(errs...)
}

// Login is what the auth backend hands back from a successful sign-in.
type Login struct {
	Access  string
	Refresh string
	User    Profile
}

// Session is a view of the vault for one browser session.
type Session struct {
	vault  *Vault
	handle Handle
}

func (s *Session) Handle() Handle { return s.handle }

// probeOrder lists the scopes a lookup reads, in order.
func (s *Session) probeOrder() []Scope {
	if s.handle.Scope != ScopeUnknown {
		return []Scope{s.handle.Scope}
	}
	return []Scope{ScopePersistent, ScopeEphemeral}
}

// Lookup returns the first non-empty value for key and the scope that held
// it. A pinned handle only ever reads its own scope.
func (s *Session) Lookup(ctx context.Context, key string) (string, Scope, error) {
	ns := s.handle.Namespace.String()
	for _, scope := range s.probeOrder() {
		st, err := s.vault.Store(scope)
		if err != nil {
			if errors.Is(err, ErrNoStore) && s.handle.Scope == ScopeUnknown {
				continue
			}
			return "", ScopeUnknown, err
		}

		v, err := st.Get(ctx, ns, key)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			return "", ScopeUnknown, fmt.Errorf("credstore: get %s from %s: %w", key, scope, err)
		case v == "":
			continue
		}
		return v, scope, nil
	}
	return "", ScopeUnknown, ErrNotFound
}

// Get reads key from one scope only.
func (s *Session) Get(ctx context.Context, scope Scope, key string) (string, error) {
	st, err := s.vault.Store(scope)
	if err != nil {
		return "", err
	}
	v, err := st.Get(ctx, s.handle.Namespace.String(), key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Put writes key into scope.
func (s *Session) Put(ctx context.Context, scope Scope, key, value string) error {
	if err := s.checkScope(scope); err != nil {
		return err
	}
	st, err := s.vault.Store(scope)
	if err != nil {
		return err
	}
	return st.Set(ctx, s.handle.Namespace.String(), key, value)
}

// SaveLogin stores the credential pair and profile in scope. The other
// scope's copy of this namespace is cleared first so a key never lives in
// both scopes at once.
func (s *Session) SaveLogin(ctx context.Context, scope Scope, l Login) error {
	if err := s.checkScope(scope); err != nil {
		return err
	}
	st, err := s.vault.Store(scope)
	if err != nil {
		return err
	}

	other := ScopeEphemeral
	if scope == ScopeEphemeral {
		other = ScopePersistent
	}
	if ost, err := s.vault.Store(other); err == nil {
		if err := ost.Clear(ctx, s.handle.Namespace.String()); err != nil {
			return fmt.Errorf("credstore: clear %s: %w", other, err)
		}
	}

	user, err := json.Marshal(l.User)
	if err != nil {
		return fmt.Errorf("credstore: encode profile: %w", err)
	}

	return st.SetMany(ctx, s.handle.Namespace.String(), map[string]string{
		KeyAccessToken:  l.Access,
		KeyRefreshToken: l.Refresh,
		KeyUser:         string(user),
		KeyRole:         l.User.Role,
	})
}

// Profile reads and parses the stored user profile.
func (s *Session) Profile(ctx context.Context) (Profile, error) {
	raw, _, err := s.Lookup(ctx, KeyUser)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(raw)
}

// Clear removes the namespace from both scopes.
func (s *Session) Clear(ctx context.Context) error {
	ns := s.handle.Namespace.String()
	var errs []error
	for _, scope := range []Scope{ScopePersistent, ScopeEphemeral} {
		st, err := s.vault.Store(scope)
		if err != nil {
			continue
		}
		if err := st.Clear(ctx, ns); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scope, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) checkScope(scope Scope) error {
	if scope == ScopeUnknown {
		return fmt.Errorf("%w: %s", ErrNoStore, scope)
	}
	if s.handle.Scope != ScopeUnknown && s.handle.Scope != scope {
		return fmt.Errorf("%w: handle %s, got %s", ErrScopeMismatch, s.handle.Scope, scope)
	}
	return nil
}
