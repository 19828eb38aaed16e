package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/importer"
	"github.com/dpereira/faturacao/internal/role"
)

func (c *Controller) ListClientes(ctx context.Context) ([]client.Cliente, error) {
	if _, err := c.requireUser(); err != nil {
		return nil, err
	}

	return c.clients.List(ctx)
}

func (c *Controller) CreateCliente(ctx context.Context, params client.CreateParams) (*client.Cliente, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanCreateClient(u.Role) {
		return nil, ErrPermissionDenied
	}

	cl, err := c.clients.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := c.record(ctx, u, audit.ActionCreate, audit.EntityCliente, cl.ID.String(), cl.Nome); err != nil {
		return cl, err
	}

	return cl, nil
}

func (c *Controller) UpdateCliente(ctx context.Context, id uuid.UUID, params client.CreateParams) (*client.Cliente, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanEditClient(u.Role) {
		return nil, ErrPermissionDenied
	}

	cl, err := c.clients.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	if err := c.record(ctx, u, audit.ActionEdit, audit.EntityCliente, cl.ID.String(), cl.Nome); err != nil {
		return cl, err
	}

	return cl, nil
}

// DeleteCliente applies the referential guard: a comercial cannot
// remove a client that still has faturas on its name.
func (c *Controller) DeleteCliente(ctx context.Context, id uuid.UUID) error {
	u, err := c.requireUser()
	if err != nil {
		return err
	}

	cl, err := c.clients.Get(ctx, id)
	if err != nil {
		return err
	}

	faturas, err := c.invoices.List(ctx)
	if err != nil {
		return err
	}

	if !role.CanDeleteThisClient(u.Role, cl.Nome, faturas) {
		return ErrPermissionDenied
	}

	removed, err := c.clients.Delete(ctx, id)
	if err != nil {
		return err
	}

	return c.record(ctx, u, audit.ActionRemove, audit.EntityCliente, removed.ID.String(), removed.Nome)
}

// ImportResult summarizes a client list import for the UI.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportClientes parses a client list export and creates every valid
// row. Rows with an invalid NIF are skipped and counted, the rest go
// through the regular create path.
func (c *Controller) ImportClientes(ctx context.Context, r io.Reader) (*ImportResult, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanCreateClient(u.Role) {
		return nil, ErrPermissionDenied
	}

	parsed, err := importer.NewParser().Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: parsed.Skipped}

	for _, params := range parsed.Clients {
		if _, err := c.clients.Create(ctx, params); err != nil {
			result.Skipped++
			continue
		}

		result.Imported++
	}

	if result.Imported > 0 {
		detalhe := fmt.Sprintf("importados %d clientes", result.Imported)
		if err := c.record(ctx, u, audit.ActionCreate, audit.EntityCliente, "", detalhe); err != nil {
			return result, err
		}
	}

	return result, nil
}
