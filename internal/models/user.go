package models

import "time"

// UserRole is the coarse permission level of a user.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// User represents an authenticated operator of the system.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed in JSON
	Role         UserRole  `gorm:"size:20;not null;default:'EMPLOYEE'" json:"role"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// HasRole reports whether u satisfies required. Admins satisfy every role.
func (u *User) HasRole(required UserRole) bool {
	return u.IsAdmin() || u.Role == required
}
