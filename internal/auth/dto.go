package auth

import (
	"github.com/angelmondragon/kickfinderz-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoints.
// GuestToken is filled from the X-Guest-Token header so the guest cart can be
// promoted to the signed-in user.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	GuestToken string `json:"-"`
}

// RegisterRequest contains the payload for creating a shopper account.
type RegisterRequest struct {
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	GuestToken string `json:"-"`
}

// LoginResponse contains the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int            `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}
