package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"

	"github.com/bbp-platform/user-service/internal/common/constants"
	"github.com/bbp-platform/user-service/internal/storage/pool"
	"github.com/bbp-platform/user-service/internal/user/domain"
)

const pgUniqueViolation = "23505"

// PgRepository runs every operation on one leased connection. Writes go
// through a scoped transaction: commit only when the callback succeeds,
// rollback on any error or panic. Reads never commit.
type PgRepository struct {
	pool *pool.Pool
}

func NewPgRepository(p *pool.Pool) *PgRepository {
	return &PgRepository{pool: p}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO users (user_id, username, email, password_hash, registration_date)
			 VALUES ($1, $2, $3, $4, $5)`,
			string(user.ID),
			user.Username,
			user.Email,
			user.PasswordHash,
			user.RegisteredAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrEmailAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *PgRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User
	err := r.withConn(ctx, func(ctx context.Context, conn pool.Conn) error {
		row := conn.QueryRow(
			ctx,
			`SELECT user_id, username, email, password_hash, registration_date, last_login
			 FROM users
			 WHERE email = $1`,
			email,
		)
		return scanUser(row, &user)
	})
	return user, err
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	var user domain.User
	err := r.withConn(ctx, func(ctx context.Context, conn pool.Conn) error {
		row := conn.QueryRow(
			ctx,
			`SELECT user_id, username, email, password_hash, registration_date, last_login
			 FROM users
			 WHERE user_id = $1`,
			string(id),
		)
		return scanUser(row, &user)
	})
	return user, err
}

func (r *PgRepository) UpdateLastLogin(ctx context.Context, id domain.ID, at time.Time) error {
	return r.withTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(
			ctx,
			`UPDATE users SET last_login = $1 WHERE user_id = $2`,
			at,
			string(id),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Ping exercises a leased connection with a trivial query. Read-only, no
// transaction.
func (r *PgRepository) Ping(ctx context.Context) error {
	return r.withConn(ctx, func(ctx context.Context, conn pool.Conn) error {
		var one int
		return conn.QueryRow(ctx, `SELECT 1`).Scan(&one)
	})
}

func (r *PgRepository) withConn(ctx context.Context, fn func(context.Context, pool.Conn) error) error {
	return r.pool.WithConn(ctx, func(conn pool.Conn) error {
		ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
		defer cancel()
		return fn(ctx, conn)
	})
}

func (r *PgRepository) withTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return r.pool.WithConn(ctx, func(conn pool.Conn) error {
		ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
		defer cancel()

		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}

		defer func() {
			if p := recover(); p != nil {
				_ = tx.Rollback(ctx)
				panic(p)
			}
		}()

		if err := fn(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	})
}

func scanUser(row pgx.Row, user *domain.User) error {
	var id string
	err := row.Scan(
		&id,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RegisteredAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	user.ID = domain.ID(id)
	return nil
}
