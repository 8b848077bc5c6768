// Package types provides the wire records exchanged with the job board API and persisted by the client.
package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Role identifies which side of the job board a user is on.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
)

// ParseRole returns the role for s, or false when s names no known role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCandidate, RoleEmployer:
		return Role(s), true
	default:
		return "", false
	}
}

// User is the authenticated identity held by a session.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Age         int    `json:"age,omitempty"`
	Phone       int64  `json:"phone,omitempty"`
	Role        Role   `json:"role"`
}

// DisplayName returns the name shown in the navigation bar.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case u.Role == RoleEmployer && u.CompanyName != "":
		if name == "" {
			return u.CompanyName
		}
		return name + " (" + u.CompanyName + ")"
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// TokenResponse is the body returned by the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the registration form for either role.
// CompanyName is required for employers, Age for candidates.
type RegisterRequest struct {
	Role        Role   `json:"role" validate:"required,oneof=candidate employer"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=4"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Age         int    `json:"age,omitempty" validate:"required_if=Role candidate,max=150"`
	CompanyName string `json:"company_name,omitempty" validate:"required_if=Role employer"`
	Phone       int64  `json:"phone" validate:"required"`
}

// LoginResponse is what the client hands back after a successful login.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

var validate = validator.New()

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the RegisterRequest using the validator.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}
