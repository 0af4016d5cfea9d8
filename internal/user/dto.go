package user

import (
	"github.com/paydash/payment-dashboard/internal"
	"github.com/paydash/payment-dashboard/internal/auth"
)

// CreateUserDTO is the payload for the admin-only user creation endpoint.
type CreateUserDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

const minPasswordLength = 8

func (d *CreateUserDTO) Validate() error {
	if d.Username == "" {
		return internal.NewValidationFieldError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < minPasswordLength {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if d.Role == "" {
		d.Role = auth.RoleViewer
	}
	if d.Role != auth.RoleAdmin && d.Role != auth.RoleViewer {
		return internal.NewValidationFieldError("role", "role must be admin or viewer", internal.ErrCodeValidationFailed)
	}
	return nil
}
