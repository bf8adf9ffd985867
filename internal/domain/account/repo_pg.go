package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type userRepoPG struct{ conn queryable }

func NewUserRepoPG(pool *pgxpool.Pool) UserRepository { return &userRepoPG{conn: pool} }

const userCols = `id, name, email, password, role, specialization, department, phone, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role,
		&u.Specialization, &u.Department, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, name, email, password, role, specialization, department, phone, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Name, u.Email, u.Password, u.Role, u.Specialization, u.Department, u.Phone, u.CreatedAt, u.UpdatedAt)
	return db.Classify("insert user", err)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, db.Classify("get user", err)
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
	return u, db.Classify("get user by email", err)
}

func (r *userRepoPG) List(ctx context.Context) ([]*User, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, db.Classify("list users", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, db.Classify("scan user", err)
		}
		users = append(users, u)
	}
	return users, db.Classify("list users", rows.Err())
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	tag, err := r.conn.Exec(ctx, `
		UPDATE users SET name=$2, email=$3, specialization=$4, department=$5, phone=$6, updated_at=$7
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Specialization, u.Department, u.Phone, u.UpdatedAt)
	if err != nil {
		return db.Classify("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify("update user", pgx.ErrNoRows)
	}
	return nil
}

func (r *userRepoPG) UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error {
	tag, err := r.conn.Exec(ctx, `UPDATE users SET password=$2, updated_at=NOW() WHERE id = $1`, id, hashed)
	if err != nil {
		return db.Classify("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return db.Classify("update password", pgx.ErrNoRows)
	}
	return nil
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, db.Classify("delete user", err)
	}
	return tag.RowsAffected(), nil
}
