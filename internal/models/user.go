package models

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Password         string     `json:"password,omitempty"`
	FullName         string     `json:"full_name"`
	PhoneNumber      string     `json:"phone_number"`
	Gender           string     `json:"gender"`
	Birthdate        string     `json:"birthdate"`
	Role             string     `json:"role"`
	IsVerified       bool       `json:"is_verified"`
	RemainingCredits int        `json:"remaining_credits"`
	FCMToken         *string    `json:"fcm_token,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	Birthdate   string `json:"birthdate"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpResponse struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

type ChangePasswordRequest struct {
	UserID      string `json:"user_id"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}
