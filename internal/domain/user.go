package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Fullname     string    `json:"fullname"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phone_number"`
	PasswordHash string    `json:"-"`
	OTP          *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegistrationForm struct {
	Fullname        string `json:"fullname" validate:"required,max=150"`
	Username        string `json:"username" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required"`
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmpassword" validate:"required"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PasswordReset struct {
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmpassword" validate:"required"`
}
