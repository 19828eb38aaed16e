package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/role"
	"github.com/dpereira/faturacao/internal/user"
)

func (c *Controller) ListUsers(ctx context.Context) ([]user.User, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanManageUsers(u.Role) {
		return nil, ErrPermissionDenied
	}

	return c.users.List(ctx)
}

func (c *Controller) CreateUser(ctx context.Context, params user.CreateParams) (*user.User, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanManageUsers(u.Role) {
		return nil, ErrPermissionDenied
	}

	return c.users.Create(ctx, params)
}

func (c *Controller) UpdateUser(ctx context.Context, id uuid.UUID, params user.UpdateParams) (*user.User, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanManageUsers(u.Role) {
		return nil, ErrPermissionDenied
	}

	return c.users.Update(ctx, id, params)
}

// SetUserActive toggles the soft delete. Admins cannot deactivate
// themselves: that would strand the system without an administrator
// at the console.
func (c *Controller) SetUserActive(ctx context.Context, id uuid.UUID, ativo bool) (*user.User, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanManageUsers(u.Role) {
		return nil, ErrPermissionDenied
	}

	if !ativo && u.ID == id {
		return nil, ErrPermissionDenied
	}

	return c.users.SetActive(ctx, id, ativo)
}

// ChangeOwnPassword is self-service and open to every logged-in role.
func (c *Controller) ChangeOwnPassword(ctx context.Context, current, next string) error {
	u, err := c.requireUser()
	if err != nil {
		return err
	}

	return c.users.ChangePassword(ctx, u.ID, current, next)
}

func (c *Controller) AuditLog(ctx context.Context) ([]audit.Entry, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanViewAuditLog(u.Role) {
		return nil, ErrPermissionDenied
	}

	return c.audits.List(ctx)
}

// ExportBackup serializes the full dataset, returning the archive and
// its suggested filename.
func (c *Controller) ExportBackup(ctx context.Context) ([]byte, string, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, "", err
	}

	if !role.CanManageBackups(u.Role) {
		return nil, "", ErrPermissionDenied
	}

	data, err := c.backups.Export(ctx)
	if err != nil {
		return nil, "", err
	}

	return data, c.backups.Filename(), nil
}

// RestoreBackup replaces every collection with the archive contents.
// The session survives; the current user record is reloaded from the
// restored data and the session dropped if the account is gone.
func (c *Controller) RestoreBackup(ctx context.Context, raw []byte) error {
	u, err := c.requireUser()
	if err != nil {
		return err
	}

	if !role.CanManageBackups(u.Role) {
		return ErrPermissionDenied
	}

	if err := c.backups.Restore(ctx, raw); err != nil {
		return err
	}

	restored, err := c.users.FindByIdentifier(ctx, u.Identifier())
	if err != nil || !restored.Ativo {
		return c.Logout(ctx)
	}

	c.mu.Lock()
	c.current = restored
	c.mu.Unlock()

	return nil
}
