// Package pgstore persists user records in Postgres via bun.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/open-rails/signon/core"
)

type userRow struct {
	bun.BaseModel `bun:"table:signon_users,alias:u"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Status    string    `bun:"status,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Users implements core.UserStore on Postgres.
type Users struct {
	db *bun.DB
}

// New wraps a pgx pool in a bun DB.
func New(pool *pgxpool.Pool) *Users {
	sqldb := stdlib.OpenDBFromPool(pool)
	return &Users{db: bun.NewDB(sqldb, pgdialect.New())}
}

// NewFromDB uses an existing bun DB (tests, alternate drivers).
func NewFromDB(db *bun.DB) *Users { return &Users{db: db} }

// EnsureSchema creates the users table if it does not exist.
func (s *Users) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*userRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Users) CreateUser(ctx context.Context, u *core.UserRecord) error {
	row := &userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.ErrUserExists
		}
		return err
	}
	return nil
}

func (s *Users) GetUser(ctx context.Context, id string) (*core.UserRecord, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

func (s *Users) GetUserByEmail(ctx context.Context, email string) (*core.UserRecord, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.email = ?", email).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

func (s *Users) SetUserStatus(ctx context.Context, id string, status core.UserStatus) error {
	_, err := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *Users) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().Model((*userRow)(nil)).
		Column("id").
		Where("status = ?", string(core.UserPending)).
		Where("created_at < ?", cutoff).
		Limit(limit).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Users) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func fromRow(r *userRow) *core.UserRecord {
	return &core.UserRecord{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Status:    core.UserStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
}
