package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the authenticated caller on whose behalf an operation runs.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (i Identity) Empty() bool {
	return i.UserID == ""
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Session is returned by login and signup.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
