package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/export"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/role"
)

// ListFaturas is open to every logged-in role.
func (c *Controller) ListFaturas(ctx context.Context) ([]invoice.Fatura, error) {
	if _, err := c.requireUser(); err != nil {
		return nil, err
	}

	return c.invoices.List(ctx)
}

func (c *Controller) GetFatura(ctx context.Context, id uuid.UUID) (*invoice.Fatura, error) {
	if _, err := c.requireUser(); err != nil {
		return nil, err
	}

	return c.invoices.Get(ctx, id)
}

func (c *Controller) Summary(ctx context.Context) (*invoice.Summary, error) {
	faturas, err := c.ListFaturas(ctx)
	if err != nil {
		return nil, err
	}

	s := invoice.Summarize(faturas)

	return &s, nil
}

func (c *Controller) CreateFatura(ctx context.Context, params invoice.CreateParams) (*invoice.Fatura, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanCreateInvoice(u.Role) {
		return nil, ErrPermissionDenied
	}

	params.CreatedBy = u.Identifier()

	f, err := c.invoices.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := c.record(ctx, u, audit.ActionCreate, audit.EntityFatura, f.ID.String(), faturaLabel(f)); err != nil {
		return f, err
	}

	return f, nil
}

func (c *Controller) UpdateFatura(ctx context.Context, id uuid.UUID, params invoice.UpdateParams) (*invoice.Fatura, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	current, err := c.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !role.CanEditInvoice(u.Role, current.Estado) {
		return nil, ErrPermissionDenied
	}

	f, err := c.invoices.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	if err := c.record(ctx, u, audit.ActionEdit, audit.EntityFatura, f.ID.String(), faturaLabel(f)); err != nil {
		return f, err
	}

	return f, nil
}

// ChangeFaturaState checks both sides of the transition against the
// matrix: the role must be allowed to move a fatura out of its current
// state and into the target one.
func (c *Controller) ChangeFaturaState(ctx context.Context, id uuid.UUID, target invoice.Estado, justificacao string) (*invoice.Fatura, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	current, err := c.invoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !role.CanChangeInvoiceState(u.Role, current.Estado) {
		return nil, ErrPermissionDenied
	}

	if !targetAllowed(u.Role, target) {
		return nil, ErrPermissionDenied
	}

	from := current.Estado

	f, err := c.invoices.ChangeState(ctx, id, target, justificacao, u.Identifier())
	if err != nil {
		return nil, err
	}

	detalhe := fmt.Sprintf("%s: %s para %s", faturaLabel(f), from, target)
	if err := c.record(ctx, u, audit.ActionEdit, audit.EntityFatura, f.ID.String(), detalhe); err != nil {
		return f, err
	}

	return f, nil
}

func (c *Controller) DeleteFatura(ctx context.Context, id uuid.UUID) error {
	u, err := c.requireUser()
	if err != nil {
		return err
	}

	current, err := c.invoices.Get(ctx, id)
	if err != nil {
		return err
	}

	if !role.CanDeleteInvoice(u.Role, current.Estado) {
		return ErrPermissionDenied
	}

	removed, err := c.invoices.Delete(ctx, id)
	if err != nil {
		return err
	}

	return c.record(ctx, u, audit.ActionRemove, audit.EntityFatura, removed.ID.String(), faturaLabel(removed))
}

// DuplicateFatura needs the create grant: the copy is a brand new
// fatura, numbered and awaiting payment.
func (c *Controller) DuplicateFatura(ctx context.Context, id uuid.UUID) (*invoice.Fatura, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanCreateInvoice(u.Role) {
		return nil, ErrPermissionDenied
	}

	f, err := c.invoices.Duplicate(ctx, id, u.Identifier())
	if err != nil {
		return nil, err
	}

	detalhe := fmt.Sprintf("%s (duplicada)", faturaLabel(f))
	if err := c.record(ctx, u, audit.ActionCreate, audit.EntityFatura, f.ID.String(), detalhe); err != nil {
		return f, err
	}

	return f, nil
}

func (c *Controller) Receivables(ctx context.Context) ([]invoice.Fatura, error) {
	u, err := c.requireUser()
	if err != nil {
		return nil, err
	}

	if !role.CanViewReceivables(u.Role) {
		return nil, ErrPermissionDenied
	}

	return c.invoices.Receivables(ctx)
}

// ExportFaturasCSV renders the current listing for download. Viewing
// is unrestricted, so exporting is too.
func (c *Controller) ExportFaturasCSV(ctx context.Context) ([]byte, string, error) {
	faturas, err := c.ListFaturas(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := export.CSV(faturas)
	if err != nil {
		return nil, "", err
	}

	return data, export.Filename(c.invoices.Now()), nil
}

// AllowedTargetStates exposes the matrix to the views so they only
// offer transitions that will be accepted.
func (c *Controller) AllowedTargetStates() []invoice.Estado {
	return role.AllowedTargetStates(c.CurrentRole())
}

func targetAllowed(r role.Role, target invoice.Estado) bool {
	for _, e := range role.AllowedTargetStates(r) {
		if e == target {
			return true
		}
	}

	return false
}

func faturaLabel(f *invoice.Fatura) string {
	if f.Numero != "" {
		return f.Numero
	}

	return "rascunho " + f.Cliente
}
