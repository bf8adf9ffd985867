package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/contact"
)

// Credentials is the part of auth.Credentials the account service uses.
type Credentials interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, hashed string) bool
	IssueToken(id, role string) (string, error)
}

// AttemptRecorder counts signup and login outcomes.
type AttemptRecorder interface {
	RecordAuthAttempt(method, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthAttempt(string, string) {}

const (
	msgUserExists       = "User already exists"
	msgUserNotFound     = "User not found"
	msgInvalidCreds     = "Invalid credentials"
	msgEmailAdminOnly   = "Only admin can change email"
	msgWrongOldPassword = "Current password is incorrect"
)

type Service struct {
	users    UserRepository
	creds    Credentials
	attempts AttemptRecorder
	logger   zerolog.Logger
}

func NewService(users UserRepository, creds Credentials, attempts AttemptRecorder, logger zerolog.Logger) *Service {
	if attempts == nil {
		attempts = nopRecorder{}
	}
	return &Service{users: users, creds: creds, attempts: attempts, logger: logger}
}

// Signup creates an account and returns it with a fresh token.
func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	u, err := s.create(ctx, req)
	if err != nil {
		s.attempts.RecordAuthAttempt("signup", "failure")
		return nil, err
	}
	token, err := s.creds.IssueToken(u.ID.String(), u.Role)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	s.attempts.RecordAuthAttempt("signup", "success")
	return &AuthResponse{Token: token, User: u}, nil
}

// CreateUser creates an account on behalf of an admin. No token is issued.
func (s *Service) CreateUser(ctx context.Context, req *SignupRequest) (*User, error) {
	return s.create(ctx, req)
}

func (s *Service) create(ctx context.Context, req *SignupRequest) (*User, error) {
	if msgs := req.Validate(); len(msgs) > 0 {
		return nil, apperr.Validation(msgs...)
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.Conflict(msgUserExists)
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Internal("", err)
	}

	hashed, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal("", err)
	}

	u := req.toUser(hashed)
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict(msgUserExists)
		}
		return nil, apperr.Internal("", err)
	}
	return u, nil
}

// Login exchanges an email and password for a token. Unknown emails and
// wrong passwords fail with different messages.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, contact.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			s.attempts.RecordAuthAttempt("login", "failure")
			return nil, apperr.Unauthorized(msgUserNotFound)
		}
		return nil, apperr.Internal("", err)
	}
	if !s.creds.VerifyPassword(password, u.Password) {
		s.attempts.RecordAuthAttempt("login", "failure")
		return nil, apperr.Unauthorized(msgInvalidCreds)
	}

	token, err := s.creds.IssueToken(u.ID.String(), u.Role)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	s.attempts.RecordAuthAttempt("login", "success")
	return &AuthResponse{Token: token, User: u}, nil
}

// Get loads an account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, apperr.Internal("", err)
	}
	return u, nil
}

// UpdateMe applies a self-service profile change. Only admins may change
// their email; specialty and department only stick for roles that carry
// them.
func (s *Service) UpdateMe(ctx context.Context, id uuid.UUID, req *UpdateMeRequest) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	email := contact.NormalizeEmail(req.Email)
	if email != "" && email != u.Email && u.Role != auth.RoleAdmin {
		return nil, apperr.Forbidden(msgEmailAdminOnly)
	}

	if req.Name != "" {
		u.Name = req.Name
	}
	if email != "" && u.Role == auth.RoleAdmin {
		if !contact.IsEmail(email) {
			return nil, apperr.Validation("Please enter a valid email")
		}
		u.Email = email
	}
	if p := optional(req.Phone); p != nil {
		u.Phone = p
	}
	if sp := optional(req.Specialty); sp != nil {
		u.Specialization = sp
	}
	if d := optional(req.Department); d != nil {
		u.Department = d
	}
	u.normalizeRoleFields()

	return u, s.save(ctx, u)
}

// UpdateProfile changes the name and email of the calling admin.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if email := contact.NormalizeEmail(req.Email); email != "" {
		if !contact.IsEmail(email) {
			return nil, apperr.Validation("Please enter a valid email")
		}
		u.Email = email
	}
	return u, s.save(ctx, u)
}

func (s *Service) save(ctx context.Context, u *User) error {
	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicate):
			return apperr.Conflict(msgUserExists)
		case errors.Is(err, db.ErrNotFound):
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal("", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error {
	switch {
	case req.NewPassword == "":
		return apperr.Validation("New password is required")
	case len(req.NewPassword) > MaxPasswordBytes:
		return apperr.Validation(msgPasswordTooLong)
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.creds.VerifyPassword(req.OldPassword, u.Password) {
		return apperr.Unauthorized(msgWrongOldPassword)
	}

	hashed, err := s.creds.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Internal("", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hashed); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal("", err)
	}
	s.logger.Info().Str("user_id", id.String()).Msg("password changed")
	return nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("", err)
	}
	return users, nil
}

// Delete removes an account and reports how many rows went away.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return 0, apperr.Internal("", fmt.Errorf("delete user %s: %w", id, err))
	}
	if n == 0 {
		return 0, apperr.NotFound(msgUserNotFound)
	}
	return n, nil
}
