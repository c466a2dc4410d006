package domain

import "time"

// User is an account that owns transactions. PasswordHash is never serialized.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_users_email_unique" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// NewUser is the data needed to register an account.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
