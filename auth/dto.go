// Data transfer objects for the auth endpoints. Validation tags are enforced
// by httpx.ValidateStruct before any service logic runs.
package auth

// CreateUserRequest is the payload for account creation. The five-character
// password minimum matches the account policy enforced at the service level
// as well, so callers bypassing the HTTP layer get the same rule.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name"`
}

// TokenRequest is the payload for exchanging credentials for a token.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries the opaque bearer token issued for a user.
type TokenResponse struct {
	Token string `json:"token"`
}
