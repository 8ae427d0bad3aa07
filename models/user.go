package models

import (
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
	RoleCustomer UserRole = "CUSTOMER"
)

// Staff reports whether the role may manage orders and the catalog.
func (r UserRole) Staff() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	gorm.Model
	Username string   `gorm:"uniqueIndex;size:64" json:"username"`
	Email    string   `gorm:"uniqueIndex;size:128" json:"email"`
	Password string   `json:"-"`
	FullName string   `json:"fullName"`
	Phone    string   `json:"phone"`
	Address  string   `json:"address"`
	Role     UserRole `gorm:"size:16;default:CUSTOMER" json:"role"`
	Active   bool     `gorm:"default:true" json:"active"`
}
