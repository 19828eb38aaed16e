package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/role"
)

type fakeRepo struct {
	entries []audit.Entry
}

func (f *fakeRepo) ListAuditEntries(context.Context) ([]audit.Entry, error) {
	out := make([]audit.Entry, len(f.entries))
	copy(out, f.entries)

	return out, nil
}

func (f *fakeRepo) ReplaceAuditEntries(_ context.Context, entries []audit.Entry) error {
	f.entries = entries
	return nil
}

func TestService_RecordNewestFirst(t *testing.T) {
	repo := &fakeRepo{}
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	svc := audit.NewService(repo, audit.WithClock(func() time.Time { return now }))

	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, "F001", role.Admin, audit.ActionCreate, audit.EntityFatura, "id-1", "FT-2025-001"))

	now = now.Add(time.Minute)
	require.NoError(t, svc.Record(ctx, "F002", role.Comercial, audit.ActionEdit, audit.EntityCliente, "id-2", "Clínica Lusa"))

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "F002", entries[0].UserIdentifier)
	assert.Equal(t, audit.ActionEdit, entries[0].Action)
	assert.Equal(t, "F001", entries[1].UserIdentifier)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))
}

func TestService_RecordCapsAtMaxEntries(t *testing.T) {
	repo := &fakeRepo{}
	svc := audit.NewService(repo)
	ctx := context.Background()

	for i := 0; i < audit.MaxEntries+10; i++ {
		detalhe := fmt.Sprintf("entrada %d", i)
		require.NoError(t, svc.Record(ctx, "F001", role.Admin, audit.ActionCreate, audit.EntityFatura, "", detalhe))
	}

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, audit.MaxEntries)

	// The newest entry survived, the oldest were dropped.
	assert.Equal(t, fmt.Sprintf("entrada %d", audit.MaxEntries+9), entries[0].Detalhe)
	assert.Equal(t, "entrada 10", entries[audit.MaxEntries-1].Detalhe)
}
