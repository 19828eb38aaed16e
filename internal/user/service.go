package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dpereira/faturacao/internal/auth"
	"github.com/dpereira/faturacao/internal/role"
)

// Repository persists the utilizador collection as a whole.
type Repository interface {
	ListUsers(ctx context.Context) ([]User, error)
	ReplaceUsers(ctx context.Context, users []User) error
}

// FlagRepository stores one-shot markers, used to make the plaintext
// password migration run exactly once.
type FlagRepository interface {
	Flag(ctx context.Context, name string) (bool, error)
	SetFlag(ctx context.Context, name string) error
}

const passwordMigrationFlag = "password_migration_done"

type Service struct {
	repo  Repository
	flags FlagRepository
	creds *auth.Credentials
}

func NewService(repo Repository, flags FlagRepository, creds *auth.Credentials) *Service {
	return &Service{repo: repo, flags: flags, creds: creds}
}

type CreateParams struct {
	Nome     string
	Email    string
	Codigo   string
	Password string
	Role     role.Role
}

// UpdateParams edits an account. A nil Password leaves the credential
// untouched.
type UpdateParams struct {
	Nome     string
	Email    string
	Role     role.Role
	Password *string
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// FindByIdentifier resolves an employee code or email to its account.
func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (*User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Matches(identifier) {
			u := users[i]
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u, nil
		}
	}

	return nil, ErrNotFound
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	nome := strings.TrimSpace(params.Nome)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if nome == "" {
		return nil, ErrNameMissing
	}

	if email == "" {
		return nil, ErrEmailMissing
	}

	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := auth.ValidatePasswordStrength(params.Password); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	if emailTaken(users, email, uuid.Nil) {
		return nil, ErrEmailTaken
	}

	salt, err := s.creds.GenerateSalt()
	if err != nil {
		return nil, err
	}

	hash, err := s.creds.HashPassword(params.Password, salt)
	if err != nil {
		return nil, err
	}

	u := User{
		ID:           uuid.New(),
		Nome:         nome,
		Email:        email,
		Codigo:       strings.TrimSpace(params.Codigo),
		PasswordHash: hash,
		Salt:         salt,
		Role:         params.Role,
		Ativo:        true,
	}

	users = append(users, u)
	if err := s.repo.ReplaceUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("saving utilizadores: %w", err)
	}

	return &u, nil
}

// Update applies an admin edit: name, email, role and optionally a new
// password.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*User, error) {
	nome := strings.TrimSpace(params.Nome)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if nome == "" {
		return nil, ErrNameMissing
	}

	if email == "" {
		return nil, ErrEmailMissing
	}

	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(users, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	if emailTaken(users, email, id) {
		return nil, ErrEmailTaken
	}

	u := users[idx]
	u.Nome = nome
	u.Email = email
	u.Role = params.Role

	if params.Password != nil {
		if err := auth.ValidatePasswordStrength(*params.Password); err != nil {
			return nil, err
		}

		if err := s.rehash(&u, *params.Password); err != nil {
			return nil, err
		}
	}

	users[idx] = u
	if err := s.repo.ReplaceUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("saving utilizadores: %w", err)
	}

	return &u, nil
}

// SetActive toggles the soft delete. A deactivated account keeps its
// data but cannot log in.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, ativo bool) (*User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(users, id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	users[idx].Ativo = ativo
	if err := s.repo.ReplaceUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("saving utilizadores: %w", err)
	}

	u := users[idx]

	return &u, nil
}

// Verify checks a password against the stored credential. A legacy
// record that somehow skipped the migration still carries plaintext
// and compares directly.
func (s *Service) Verify(u *User, password string) bool {
	if u.PasswordHash != "" && u.Salt != "" {
		return s.creds.VerifyPassword(password, u.Salt, u.PasswordHash)
	}

	return u.Password != "" && u.Password == password
}

// ChangePassword is the self-service flow: it demands the current
// password before accepting the new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if err := auth.ValidatePasswordStrength(next); err != nil {
		return err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(users, id)
	if idx < 0 {
		return ErrNotFound
	}

	u := users[idx]
	if !s.creds.VerifyPassword(current, u.Salt, u.PasswordHash) {
		return ErrWrongPassword
	}

	if err := s.rehash(&u, next); err != nil {
		return err
	}

	users[idx] = u
	if err := s.repo.ReplaceUsers(ctx, users); err != nil {
		return fmt.Errorf("saving utilizadores: %w", err)
	}

	return nil
}

// seed accounts created on first run, one per role. They carry a
// plaintext password on purpose: MigratePlaintextPasswords picks them
// up immediately, exercising the same path legacy data takes.
var seedUsers = []User{
	{Nome: "Admin", Email: "admin@teste.pt", Codigo: "F001", Password: "Admin123", Role: role.Admin, Ativo: true},
	{Nome: "Comercial", Email: "comercial@teste.pt", Codigo: "F002", Password: "Admin123", Role: role.Comercial, Ativo: true},
	{Nome: "Financeiro", Email: "financeiro@teste.pt", Codigo: "F003", Password: "Admin123", Role: role.Financeiro, Ativo: true},
}

// EnsureSeed creates the demo accounts when the store has no users at
// all.
func (s *Service) EnsureSeed(ctx context.Context) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}

	if len(users) > 0 {
		return nil
	}

	for _, u := range seedUsers {
		u.ID = uuid.New()
		users = append(users, u)
	}

	if err := s.repo.ReplaceUsers(ctx, users); err != nil {
		return fmt.Errorf("seeding utilizadores: %w", err)
	}

	return nil
}

// MigratePlaintextPasswords upgrades accounts that still carry a
// plaintext password to salt+hash and drops the plaintext field. The
// migration runs once; a persisted flag keeps later startups from
// re-scanning.
func (s *Service) MigratePlaintextPasswords(ctx context.Context) error {
	done, err := s.flags.Flag(ctx, passwordMigrationFlag)
	if err != nil {
		return err
	}

	if done {
		return nil
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}

	changed := false

	for i := range users {
		u := users[i]
		if u.Password == "" || u.PasswordHash != "" {
			continue
		}

		if err := s.rehash(&u, u.Password); err != nil {
			return fmt.Errorf("migrating %s: %w", u.Email, err)
		}

		u.Password = ""
		users[i] = u
		changed = true
	}

	if changed {
		if err := s.repo.ReplaceUsers(ctx, users); err != nil {
			return fmt.Errorf("saving migrated utilizadores: %w", err)
		}
	}

	return s.flags.SetFlag(ctx, passwordMigrationFlag)
}

func (s *Service) rehash(u *User, password string) error {
	salt, err := s.creds.GenerateSalt()
	if err != nil {
		return err
	}

	hash, err := s.creds.HashPassword(password, salt)
	if err != nil {
		return err
	}

	u.Salt = salt
	u.PasswordHash = hash

	return nil
}

func emailTaken(users []User, email string, except uuid.UUID) bool {
	for i := range users {
		if users[i].ID == except {
			continue
		}

		if strings.EqualFold(strings.TrimSpace(users[i].Email), email) {
			return true
		}
	}

	return false
}

func indexOf(users []User, id uuid.UUID) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}

	return -1
}
