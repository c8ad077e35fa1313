package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// RegisterPayload payload.
type RegisterPayload struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     string   `json:"role"`
	Avatar   string   `json:"avatar"`
	Skills   []string `json:"skills"`
}

// LoginPayload payload.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserPayload payload.
type UpdateUserPayload struct {
	Name   *string  `json:"name"`
	Avatar *string  `json:"avatar"`
	Skills []string `json:"skills"`
}

// UserSummary is the public view of an identity.
type UserSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Avatar    string      `json:"avatar,omitempty"`
	Skills    []string    `json:"skills,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuthResponse carries a signed session.
type AuthResponse struct {
	User      UserSummary `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewUserSummary maps a user, never exposing the password hash.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Avatar:    user.Avatar,
		Skills:    user.Skills,
		CreatedAt: user.CreatedAt,
	}
}
