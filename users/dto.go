// Package users implements the authenticated profile endpoint: a user can
// read and update their own email, name, and password.
package users

// ProfileResponse is the profile representation returned to the caller.
type ProfileResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateProfileRequest updates the caller's profile. Pointer fields
// distinguish "not provided" from "set to empty": only non-nil fields are
// changed.
type UpdateProfileRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name"`
	Password *string `json:"password" validate:"omitempty,min=5"`
}
