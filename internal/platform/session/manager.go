package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

const (
	loginEndpoint       = "/auth/login"
	defaultLoginFailure = "login failed: check your credentials"
)

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Authenticator posts the login request.
type Authenticator interface {
	Post(ctx context.Context, endpoint string, body, out any) error
}

// EventRecorder observes session lifecycle events (login, logout, corrupt).
type EventRecorder interface {
	ObserveSessionEvent(event string)
}

// Manager owns the authenticated-user state of one console process. Reads are
// safe from any goroutine; mutations are serialized.
type Manager struct {
	store  Store
	authn  Authenticator
	logger zerolog.Logger
	events EventRecorder

	mu      sync.RWMutex
	current *UserProfile
	subs    map[int]chan *UserProfile
	nextSub int
}

type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithEvents(r EventRecorder) Option {
	return func(m *Manager) { m.events = r }
}

// NewManager restores any stored session. Unreadable stored data is treated as
// a logout: the keys are cleared and the manager starts anonymous.
func NewManager(ctx context.Context, store Store, authn Authenticator, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		authn:  authn,
		logger: zerolog.Nop(),
		subs:   make(map[int]chan *UserProfile),
	}
	for _, opt := range opts {
		opt(m)
	}

	profile, err := m.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return nil, err
		}
		m.logger.Warn().Err(err).Msg("stored session unreadable, clearing")
		m.event("corrupt")
		if err := m.store.Delete(ctx, Keys...); err != nil {
			return nil, fmt.Errorf("clear corrupt session: %w", err)
		}
		profile = nil
	}
	m.current = profile
	return m, nil
}

func (m *Manager) load(ctx context.Context) (*UserProfile, error) {
	raw, err := m.store.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var p UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if p.Role == "" {
		if role, err := m.store.Get(ctx, KeyRole); err == nil {
			p.Role = auth.Role(role)
		}
	}
	return &p, nil
}

// Login posts the credentials and builds a Session. It does not persist
// anything; call SetSessionData to commit.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*Session, error) {
	var v validate.Checker
	v.Required("email", creds.Email)
	v.Required("password", creds.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	body := map[string]string{
		"nombre_usuario": creds.Email,
		"contraseña":     creds.Password,
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID            resource.ID `json:"id"`
			Email         string      `json:"email"`
			Nombre        string      `json:"nombre"`
			NombreUsuario string      `json:"nombre_usuario"`
			Apellido      string      `json:"apellido"`
			Activo        bool        `json:"activo"`
			EsAdmin       bool        `json:"es_admin"`
		} `json:"user"`
	}
	if err := m.authn.Post(ctx, loginEndpoint, body, &resp); err != nil {
		m.logger.Info().Str("email", creds.Email).Msg("login rejected")
		return nil, &AuthError{Message: loginFailure(err), Err: err}
	}
	if resp.AccessToken == "" {
		return nil, &AuthError{Message: "login response carried no access token"}
	}

	return &Session{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		User: UserProfile{
			ID:          resp.User.ID,
			Email:       resp.User.Email,
			DisplayName: resp.User.Nombre,
			Username:    resp.User.NombreUsuario,
			LastName:    resp.User.Apellido,
			Active:      resp.User.Activo,
			IsAdmin:     resp.User.EsAdmin,
			Role:        auth.RoleFromAdminFlag(resp.User.EsAdmin),
		},
	}, nil
}

func loginFailure(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Kind != apiclient.KindTransport {
		if msg := apiErr.Text(); msg != "" {
			return msg
		}
	}
	return defaultLoginFailure
}

// SetSessionData persists the session and publishes its profile.
func (m *Manager) SetSessionData(ctx context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return errors.New("session: empty session")
	}
	user := s.User
	if user.Role == "" {
		user.Role = auth.RoleFromAdminFlag(user.IsAdmin)
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	writes := []struct{ key, value, what string }{
		{KeyToken, s.Token, "token"},
		{KeyUser, string(data), "profile"},
		{KeyRole, string(user.Role), "role"},
	}
	for _, w := range writes {
		if err := m.store.Set(ctx, w.key, w.value); err != nil {
			m.rollback(ctx)
			return fmt.Errorf("store %s: %w", w.what, err)
		}
	}

	m.current = &user
	m.publish(&user)
	m.event("login")
	m.logger.Info().Str("user", string(user.ID)).Str("role", string(user.Role)).Msg("session started")
	return nil
}

// rollback drops a partially written session so the store never holds a
// token without its profile. Callers hold m.mu.
func (m *Manager) rollback(ctx context.Context) {
	if err := m.store.Delete(ctx, Keys...); err != nil {
		m.logger.Error().Err(err).Msg("rollback of partial session failed")
	}
	if m.current != nil {
		m.current = nil
		m.publish(nil)
	}
}

// Logout clears the stored session and publishes nil. Calling it without a
// session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, Keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if m.current != nil {
		m.event("logout")
		m.logger.Info().Str("user", string(m.current.ID)).Msg("session ended")
	}
	m.current = nil
	m.publish(nil)
	return nil
}

// IsAuthenticated reports whether a token is stored. It does not check the
// token signature or expiry.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, err := m.Token(ctx)
	return err == nil && token != ""
}

// Token returns the stored bearer token, empty when logged out.
func (m *Manager) Token(ctx context.Context) (string, error) {
	return StoreTokens{Store: m.store}.Token(ctx)
}

// StoreTokens reads the bearer token straight from a Store, so an HTTP client
// can be built before the Manager that uses it.
type StoreTokens struct {
	Store Store
}

func (s StoreTokens) Token(ctx context.Context) (string, error) {
	token, err := s.Store.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// CurrentUser returns a copy of the last published profile, or nil.
func (m *Manager) CurrentUser() *UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	p := *m.current
	return &p
}

func (m *Manager) Role() auth.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Role
}

func (m *Manager) HasRole(r auth.Role) bool { return r != "" && m.Role() == r }
func (m *Manager) IsAdmin() bool            { return m.HasRole(auth.RoleAdmin) }
func (m *Manager) IsConsumer() bool         { return m.HasRole(auth.RoleConsumer) }

// CanAccess applies auth.CanAccess to the current role.
func (m *Manager) CanAccess(route string) bool {
	return auth.CanAccess(m.Role(), route)
}

func (m *Manager) validID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	id := string(m.current.ID)
	if !uuidPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// IdentifierForCreation returns the current user id when it is a UUID, else
// NilIdentifier.
func (m *Manager) IdentifierForCreation() string {
	if id, ok := m.validID(); ok {
		return id
	}
	return NilIdentifier
}

// IdentifierForEdition returns the current user id when it is a UUID; the
// field must be omitted otherwise.
func (m *Manager) IdentifierForEdition() (string, bool) {
	return m.validID()
}

// Subscribe returns a channel that always holds the latest profile (nil when
// logged out). The current value is delivered immediately. Call cancel to
// release the subscription.
func (m *Manager) Subscribe() (<-chan *UserProfile, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *UserProfile, 1)
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- cloneProfile(m.current)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// publish must be called with m.mu held.
func (m *Manager) publish(p *UserProfile) {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cloneProfile(p)
	}
}

func (m *Manager) event(name string) {
	if m.events != nil {
		m.events.ObserveSessionEvent(name)
	}
}

func cloneProfile(p *UserProfile) *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
