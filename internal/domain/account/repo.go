package account

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository stores accounts. Lookups that match nothing return
// db.ErrNotFound and email collisions return db.ErrDuplicate.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
