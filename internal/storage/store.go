package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/dpereira/faturacao/internal/audit"
	"github.com/dpereira/faturacao/internal/client"
	"github.com/dpereira/faturacao/internal/invoice"
	"github.com/dpereira/faturacao/internal/user"
)

const bucketName = "erp"

// Keys inside the single bucket. Each holds one JSON document covering
// the whole collection, mirroring the flat key/value layout the data
// was migrated from.
const (
	keyUsers    = "users"
	keySession  = "session"
	keyInvoices = "invoices"
	keyClients  = "clients"
	keyAudit    = "auditLog"

	flagPrefix = "flag:"
)

// Store is the single-file key/value store behind every repository.
// bbolt serializes writers itself, so concurrent service calls stay
// consistent without extra locking here.
type Store struct {
	db *bolt.DB
}

// Open creates the data file (and its directory) if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// getJSON loads a collection. A missing key or a document that no
// longer parses both come back as the zero value: startup must always
// succeed, losing a corrupt collection beats refusing to open.
func getJSON[T any](s *Store, key string) (T, error) {
	var out T

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if raw == nil {
			return nil
		}

		if err := json.Unmarshal(raw, &out); err != nil {
			var zero T
			out = zero
		}

		return nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("reading %s: %w", key, err)
	}

	return out, nil
}

func putJSON[T any](s *Store, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

func (s *Store) ListFaturas(ctx context.Context) ([]invoice.Fatura, error) {
	return getJSON[[]invoice.Fatura](s, keyInvoices)
}

func (s *Store) ReplaceFaturas(ctx context.Context, faturas []invoice.Fatura) error {
	return putJSON(s, keyInvoices, faturas)
}

func (s *Store) ListClientes(ctx context.Context) ([]client.Cliente, error) {
	return getJSON[[]client.Cliente](s, keyClients)
}

func (s *Store) ReplaceClientes(ctx context.Context, clientes []client.Cliente) error {
	return putJSON(s, keyClients, clientes)
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return getJSON[[]user.User](s, keyUsers)
}

func (s *Store) ReplaceUsers(ctx context.Context, users []user.User) error {
	return putJSON(s, keyUsers, users)
}

func (s *Store) ListAuditEntries(ctx context.Context) ([]audit.Entry, error) {
	return getJSON[[]audit.Entry](s, keyAudit)
}

func (s *Store) ReplaceAuditEntries(ctx context.Context, entries []audit.Entry) error {
	return putJSON(s, keyAudit, entries)
}

// SessionToken returns the persisted token, empty when none exists.
func (s *Store) SessionToken(ctx context.Context) (string, error) {
	return getJSON[string](s, keySession)
}

func (s *Store) SetSessionToken(ctx context.Context, token string) error {
	return putJSON(s, keySession, token)
}

func (s *Store) ClearSession(ctx context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(keySession))
	})
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Flag reports whether a one-shot marker has been set.
func (s *Store) Flag(ctx context.Context, name string) (bool, error) {
	var set bool

	err := s.db.View(func(tx *bolt.Tx) error {
		set = tx.Bucket([]byte(bucketName)).Get([]byte(flagPrefix+name)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("reading flag %s: %w", name, err)
	}

	return set, nil
}

func (s *Store) SetFlag(ctx context.Context, name string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(flagPrefix+name), []byte("1"))
	})
	if err != nil {
		return fmt.Errorf("writing flag %s: %w", name, err)
	}

	return nil
}
