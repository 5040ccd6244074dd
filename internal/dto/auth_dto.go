package dto

import "github.com/google/uuid"

type RegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token   string           `json:"token"`
	Profile *ProfileResponse `json:"profile"`
}

type GoogleAuthURLResponse struct {
	URL string `json:"url"`
}

type ProfileResponse struct {
	Id        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	Provider  string    `json:"provider"`
}

type UpdateProfileRequest struct {
	FullName  string  `json:"full_name" validate:"required,min=2"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
}
