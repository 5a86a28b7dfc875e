package model

import (
	"strings"
	"time"
)

// User 站点用户
type User struct {
	ID           uint64    `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(150);uniqueIndex:ux_user_username;not null"`
	Email        string    `json:"-" gorm:"type:varchar(254);index:idx_user_email"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName     string    `json:"last_name" gorm:"type:varchar(150)"`
	PasswordHash string    `json:"-" gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

// FullName 姓名，缺省时退回用户名
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) String() string { return u.Username }
