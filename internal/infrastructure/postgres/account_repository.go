package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-accounts/internal/domain/entity"
	"storefront-accounts/internal/domain/repository"
)

const uniqueViolation = "23505"

const accountColumns = `
	id, email, first_name, last_name,
	COALESCE(phone, ''), COALESCE(city, ''), role,
	COALESCE(password_hash, ''), is_active,
	COALESCE(activation_token, ''), COALESCE(refresh_token, ''),
	created_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, first_name, last_name, phone, city, role, is_active, activation_token)
		VALUES (lower($1), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, a.Email, a.FirstName, a.LastName, a.Phone, a.City, a.Role, a.IsActive, a.ActivationToken)

	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	a.Email = strings.ToLower(a.Email)
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.getOne(ctx, `WHERE email = lower($1)`, email)
}

func (r *AccountRepository) GetByActivationToken(ctx context.Context, token string) (*entity.Account, error) {
	// A consumed token is stored as the empty string, so an empty lookup
	// must never match anything.
	if token == "" {
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `WHERE activation_token = $1`, token)
}

func (r *AccountRepository) getOne(ctx context.Context, where string, arg any) (*entity.Account, error) {
	a := &entity.Account{}
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, arg)
	if err := scanAccount(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) Save(ctx context.Context, a *entity.Account) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET email = lower($1), first_name = $2, last_name = $3, phone = $4, city = $5,
		    role = $6, password_hash = NULLIF($7, ''), is_active = $8,
		    activation_token = NULLIF($9, ''), refresh_token = NULLIF($10, '')
		WHERE id = $11
	`, a.Email, a.FirstName, a.LastName, a.Phone, a.City,
		a.Role, a.PasswordHash, a.IsActive,
		a.ActivationToken, a.RefreshToken, a.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, f repository.ListFilter) ([]*entity.Account, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		p := fmt.Sprintf("$%d", len(args))
		where = append(where, "(first_name ILIKE "+p+" OR last_name ILIKE "+p+")")
	}
	if f.City != "" {
		args = append(args, "%"+f.City+"%")
		where = append(where, fmt.Sprintf("city ILIKE $%d", len(args)))
	}
	if f.Role != "" {
		args = append(args, f.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.Size
	if size < 1 {
		size = 10
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, size, (page-1)*size)
	query := `SELECT ` + accountColumns + ` FROM accounts` + cond +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*entity.Account, 0, size)
	for rows.Next() {
		a := &entity.Account{}
		if err := scanAccount(rows, a); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row, a *entity.Account) error {
	return row.Scan(
		&a.ID, &a.Email, &a.FirstName, &a.LastName,
		&a.Phone, &a.City, &a.Role,
		&a.PasswordHash, &a.IsActive,
		&a.ActivationToken, &a.RefreshToken,
		&a.CreatedAt,
	)
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
