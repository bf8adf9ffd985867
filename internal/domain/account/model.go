package account

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/contact"
)

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

const msgPasswordTooLong = "Password cannot exceed 72 bytes"

// User is an account that can sign in. Specialization is only kept for
// doctors and Department only for doctors and admins.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Role           string    `json:"role"`
	Specialization *string   `json:"specialization,omitempty"`
	Department     *string   `json:"department,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HasSpecialization reports whether accounts with role carry a specialization.
func HasSpecialization(role string) bool {
	return role == auth.RoleDoctor
}

// HasDepartment reports whether accounts with role carry a department.
func HasDepartment(role string) bool {
	return role == auth.RoleDoctor || role == auth.RoleAdmin
}

// normalizeRoleFields drops fields the user's role does not carry.
func (u *User) normalizeRoleFields() {
	if !HasSpecialization(u.Role) {
		u.Specialization = nil
	}
	if !HasDepartment(u.Role) {
		u.Department = nil
	}
}

// SignupRequest is the body of POST /api/auth/signup and POST /api/users.
type SignupRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
	Phone          string `json:"phone"`
}

// Validate returns one message per invalid field. An empty role defaults to
// patient.
func (r *SignupRequest) Validate() []string {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = contact.NormalizeEmail(r.Email)
	if r.Role == "" {
		r.Role = auth.RolePatient
	}

	var msgs []string
	if r.Name == "" {
		msgs = append(msgs, "Name is required")
	}
	if r.Email == "" {
		msgs = append(msgs, "Email is required")
	} else if !contact.IsEmail(r.Email) {
		msgs = append(msgs, "Please enter a valid email")
	}
	switch {
	case r.Password == "":
		msgs = append(msgs, "Password is required")
	case len(r.Password) > MaxPasswordBytes:
		msgs = append(msgs, msgPasswordTooLong)
	}
	if !auth.ValidRole(r.Role) {
		msgs = append(msgs, "Role must be one of admin, doctor, patient")
	}
	return msgs
}

// toUser builds the account to store; hashed is the bcrypt hash of Password.
func (r *SignupRequest) toUser(hashed string) *User {
	u := &User{
		Name:           r.Name,
		Email:          r.Email,
		Password:       hashed,
		Role:           r.Role,
		Specialization: optional(r.Specialization),
		Department:     optional(r.Department),
		Phone:          optional(r.Phone),
	}
	u.normalizeRoleFields()
	return u
}

// UpdateMeRequest is the body of PUT /api/auth/me. Empty values leave the
// stored field unchanged.
type UpdateMeRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Specialty  string `json:"specialty"`
	Department string `json:"department"`
}

// UpdateProfileRequest is the body of PUT /api/users/update.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChangePasswordRequest is the body of PUT /api/auth/change-password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
