package entity

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleEmployee}

func (r Role) String() string { return string(r) }

// RoleFromString returns the role for raw, ignoring case and surrounding
// spaces, and false for anything unknown.
func RoleFromString(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return r, true
	default:
		return "", false
	}
}

type AccountStatus int16

const (
	AccountStatusUnknown  AccountStatus = 0
	AccountStatusActive   AccountStatus = 1
	AccountStatusInactive AccountStatus = 2
)

func (s AccountStatus) String() string {
	switch s {
	case AccountStatusActive:
		return "active"
	case AccountStatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

type Account struct {
	ID           int64
	Email        string
	FullName     string
	Role         Role
	Status       AccountStatus
	PasswordHash string
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is the canonical identity key for accounts and challenges.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
