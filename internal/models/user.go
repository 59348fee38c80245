package models

import "time"

// User is the stored account. Password holds the bcrypt hash and is never serialized.
type User struct {
	Username    string    `gorm:"primaryKey" json:"username"`
	Password    string    `gorm:"not null" json:"-"`
	FirstName   string    `gorm:"not null" json:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name"`
	Phone       string    `gorm:"not null" json:"phone"`
	JoinAt      time.Time `gorm:"not null" json:"join_at"`
	LastLoginAt time.Time `gorm:"not null" json:"last_login_at"`
}

func (User) TableName() string { return "users" }

// Summary drops the timestamps and the hash.
func (u *User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// NewUser carries the registration input, Password is the raw password.
type NewUser struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}
