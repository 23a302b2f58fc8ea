package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/usuarios-server/internal/model"
)

const (
	accountColumns = `id, nome, cpf, email, telefone, endereco, senha, created_at, updated_at, deleted_at`

	uniqueViolation = "23505"
	emailConstraint = "usuarios_email_active_key"
	cpfConstraint   = "usuarios_cpf_active_key"

	// DefaultQueryTimeout bounds a store call when no timeout is configured.
	DefaultQueryTimeout = 5 * time.Second
)

var _ model.AccountStore = (*AccountRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

type AccountRepository struct {
	db      *Connection
	timeout time.Duration
}

func NewAccountRepository(db *Connection, timeout time.Duration) *AccountRepository {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &AccountRepository{
		db:      db,
		timeout: timeout,
	}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (model.Account, error) {
	return r.getOne(ctx, "id", id, includeDeleted)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string, includeDeleted bool) (model.Account, error) {
	return r.getOne(ctx, "email", email, includeDeleted)
}

func (r *AccountRepository) GetByNationalID(ctx context.Context, nationalID string, includeDeleted bool) (model.Account, error) {
	return r.getOne(ctx, "cpf", nationalID, includeDeleted)
}

// getOne returns the most recently created row matching column. Soft-deleted
// rows may share an email or CPF, so the ordering keeps includeDeleted lookups
// deterministic.
func (r *AccountRepository) getOne(ctx context.Context, column string, value any, includeDeleted bool) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM usuarios WHERE ` + column + ` = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY deleted_at IS NULL DESC, created_at DESC LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, r.wrap(ctx, err, "failed to get account by "+column)
	}

	return account, nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]model.Account, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios WHERE deleted_at IS NULL`).Scan(&total)
	if err != nil {
		return nil, 0, r.wrap(ctx, err, "failed to count accounts")
	}

	query := `SELECT ` + accountColumns + ` FROM usuarios
			  WHERE deleted_at IS NULL
			  ORDER BY created_at DESC, id DESC
			  LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, r.wrap(ctx, err, "failed to list accounts")
	}
	defer rows.Close()

	accounts := make([]model.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, r.wrap(ctx, err, "failed to scan account")
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.wrap(ctx, err, "failed to iterate accounts")
	}

	return accounts, total, nil
}

func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `INSERT INTO usuarios (id, nome, cpf, email, telefone, endereco, senha, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.NationalID, account.Email,
		nullable(account.Phone), nullable(account.Address), account.PasswordHash,
		account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return model.Account{}, r.wrap(ctx, err, "failed to create account")
	}

	return saved, nil
}

func (r *AccountRepository) Update(ctx context.Context, id uuid.UUID, patch model.AccountPatch, passwordHash *string, now time.Time) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("nome", *patch.Name)
	}
	if patch.NationalID != nil {
		set("cpf", *patch.NationalID)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Phone != nil {
		set("telefone", nullable(patch.Phone))
	}
	if patch.Address != nil {
		set("endereco", nullable(patch.Address))
	}
	if passwordHash != nil {
		set("senha", *passwordHash)
	}
	set("updated_at", now)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE usuarios SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)

	updated, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, r.wrap(ctx, err, "failed to update account")
	}

	return updated, nil
}

func (r *AccountRepository) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE usuarios SET deleted_at = $2, updated_at = $2
			  WHERE id = $1 AND deleted_at IS NULL
			  RETURNING ` + accountColumns

	deleted, err := scanAccount(r.db.QueryRowContext(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, r.wrap(ctx, err, "failed to delete account")
	}

	return deleted, nil
}

// Restore clears deleted_at of a soft-deleted account. ErrNotFound means no
// soft-deleted row with that id exists.
func (r *AccountRepository) Restore(ctx context.Context, id uuid.UUID, now time.Time) (model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `UPDATE usuarios SET deleted_at = NULL, updated_at = $2
			  WHERE id = $1 AND deleted_at IS NOT NULL
			  RETURNING ` + accountColumns

	restored, err := scanAccount(r.db.QueryRowContext(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, r.wrap(ctx, err, "failed to restore account")
	}

	return restored, nil
}

// wrap translates driver errors into model errors where one applies.
func (r *AccountRepository) wrap(ctx context.Context, err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return model.ErrDuplicateEmail
		case cpfConstraint:
			return model.ErrDuplicateNationalID
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, model.ErrTimeout)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func scanAccount(row rowScanner) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.NationalID, &a.Email, &a.Phone, &a.Address, &a.PasswordHash,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	return a, err
}

// nullable maps a missing or empty optional field to SQL NULL.
func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
