package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

const uniqueViolationCode = "23505"

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Add(ctx context.Context, user User) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO fituser (username, password_hash, created_at)
			VALUES ($1, $2, $3) RETURNING id;`,
		user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
				return nil, ErrUsernameTaken
			}
			return nil, err
		}
		return nil, errors.New("unexpected error, failed to insert user")
	}

	if err := rows.Scan(&user.ID); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &user, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, username, password_hash, created_at FROM fituser WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	users, err := r.rows2users(rows)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}

	return &users[0], nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, username, password_hash, created_at FROM fituser WHERE username = $1;`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	defer rows.Close()

	users, err := r.rows2users(rows)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}

	return &users[0], nil
}

func (r *Repo) rows2users(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}
