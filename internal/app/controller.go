// Package app is the gate every mutation passes through: it owns the
// logged-in user, checks the authorization matrix before delegating to
// the domain services, and appends the audit trail for accepted fatura
// and cliente changes. The services themselves never look at roles.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/auth"
	"github.com/dpereira/faturacao/internal/backup"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/role"
	"github.com/dpereira/faturacao/internal/user"
)

var (
	ErrPermissionDenied   = errors.New("permissão negada")
	ErrNotLoggedIn        = errors.New("sessão não iniciada")
	ErrInvalidCredentials = errors.New("credenciais inválidas")
)

// LockoutError is returned while the login rate limiter holds.
type LockoutError struct {
	Until time.Time
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("conta bloqueada até %s", e.Until.Format("15:04:05"))
}

// SessionStore persists the active session token between runs.
type SessionStore interface {
	SessionToken(ctx context.Context) (string, error)
	SetSessionToken(ctx context.Context, token string) error
	ClearSession(ctx context.Context) error
}

type Controller struct {
	store    SessionStore
	users    *user.Service
	clients  *client.Service
	invoices *invoice.Service
	audits   *audit.Service
	backups  *backup.Service
	sessions *auth.Sessions
	limiter  *auth.RateLimiter

	inactivity time.Duration

	mu        sync.Mutex
	current   *user.User
	token     string
	idleTimer *time.Timer
	onIdle    func()
}

type Params struct {
	Store    SessionStore
	Users    *user.Service
	Clients  *client.Service
	Invoices *invoice.Service
	Audits   *audit.Service
	Backups  *backup.Service
	Sessions *auth.Sessions
	Limiter  *auth.RateLimiter

	// InactivityTimeout ends the session after this long without a
	// Touch. Zero disables the watchdog.
	InactivityTimeout time.Duration

	// OnIdle runs when the inactivity watchdog fires, after the
	// session is torn down. The terminal program uses it to jump back
	// to the login screen.
	OnIdle func()
}

func NewController(p Params) *Controller {
	return &Controller{
		store:      p.Store,
		users:      p.Users,
		clients:    p.Clients,
		invoices:   p.Invoices,
		audits:     p.Audits,
		backups:    p.Backups,
		sessions:   p.Sessions,
		limiter:    p.Limiter,
		inactivity: p.InactivityTimeout,
		onIdle:     p.OnIdle,
	}
}

// CurrentUser returns the logged-in user, nil when nobody is.
func (c *Controller) CurrentUser() *user.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}

	u := *c.current

	return &u
}

// CurrentRole returns the role of the logged-in user, the empty (grant
// free) role when nobody is.
func (c *Controller) CurrentRole() role.Role {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return role.Role("")
	}

	return c.current.Role
}

// Login authenticates an identifier (employee code or email) against
// the stored credential. Failures feed the rate limiter; while locked
// out, attempts are rejected before the credential is even looked at.
func (c *Controller) Login(ctx context.Context, identifier, password string) (*user.User, error) {
	if status := c.limiter.Status(); status.Locked {
		return nil, &LockoutError{Until: status.LockedUntil}
	}

	u, err := c.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, c.failLogin()
		}

		return nil, err
	}

	if !u.Ativo {
		return nil, user.ErrUserDeactivated
	}

	if !c.users.Verify(u, password) {
		return nil, c.failLogin()
	}

	c.limiter.Reset()

	token, err := c.sessions.Create(u.Identifier())
	if err != nil {
		return nil, err
	}

	if err := c.store.SetSessionToken(ctx, token); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = u
	c.token = token
	c.resetIdleTimerLocked()
	c.mu.Unlock()

	return u, nil
}

func (c *Controller) failLogin() error {
	if status := c.limiter.RecordFailure(); status.Locked {
		return &LockoutError{Until: status.LockedUntil}
	}

	return ErrInvalidCredentials
}

// RestoreSession picks up a persisted token from a previous run. A
// missing, expired or orphaned token just means nobody is logged in.
func (c *Controller) RestoreSession(ctx context.Context) (*user.User, error) {
	token, err := c.store.SessionToken(ctx)
	if err != nil {
		return nil, err
	}

	identifier, ok := c.sessions.Validate(token)
	if !ok {
		return nil, nil
	}

	u, err := c.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = c.store.ClearSession(ctx)
			return nil, nil
		}

		return nil, err
	}

	if !u.Ativo {
		_ = c.store.ClearSession(ctx)
		return nil, nil
	}

	c.mu.Lock()
	c.current = u
	c.token = token
	c.resetIdleTimerLocked()
	c.mu.Unlock()

	return u, nil
}

// Touch marks user activity: the session expiry slides forward a full
// duration and the inactivity watchdog restarts. Call it on every
// meaningful interaction.
func (c *Controller) Touch(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		return ErrNotLoggedIn
	}

	fresh, err := c.sessions.Extend(token)
	if err != nil {
		return err
	}

	if err := c.store.SetSessionToken(ctx, fresh); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = fresh
	c.resetIdleTimerLocked()
	c.mu.Unlock()

	return nil
}

// SessionExpiresAt reports when the current session token runs out.
func (c *Controller) SessionExpiresAt() (time.Time, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		return time.Time{}, ErrNotLoggedIn
	}

	return c.sessions.ExpiresAt(token)
}

// Logout ends the session and clears the persisted token.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.current = nil
	c.token = ""
	c.stopIdleTimerLocked()
	c.mu.Unlock()

	return c.store.ClearSession(ctx)
}

// Close stops the inactivity watchdog without touching the persisted
// session, so the next run can restore it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopIdleTimerLocked()
}

func (c *Controller) resetIdleTimerLocked() {
	c.stopIdleTimerLocked()

	if c.inactivity <= 0 {
		return
	}

	c.idleTimer = time.AfterFunc(c.inactivity, c.idleExpired)
}

func (c *Controller) stopIdleTimerLocked() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

func (c *Controller) idleExpired() {
	_ = c.Logout(context.Background())

	if c.onIdle != nil {
		c.onIdle()
	}
}

// requireUser returns the logged-in user or ErrNotLoggedIn.
func (c *Controller) requireUser() (*user.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, ErrNotLoggedIn
	}

	u := *c.current

	return &u, nil
}

// record appends an audit entry for an accepted mutation. Audit
// failures do not undo the mutation; they surface as the returned
// error so the UI can warn.
func (c *Controller) record(ctx context.Context, u *user.User, action audit.Action, entity audit.Entity, entityID, detalhe string) error {
	return c.audits.Record(ctx, u.Identifier(), u.Role, action, entity, entityID, detalhe)
}
