package models

import "time"

type User struct {
	ID           int        `json:"id"`
	Nickname     string     `json:"nickname"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type Credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}
