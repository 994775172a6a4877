// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2026 parley contributors
// https://github.com/parleyhq/parley

// Package models contains the shared domain types of the parley console.
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents a user's permission level on the platform.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleUser    UserRole = "user"
	RolePending UserRole = "pending" // signed up, awaiting admin approval
)

// IsValid checks if the role is valid.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser, RolePending:
		return true
	}
	return false
}

// IsAdmin returns true for administrator accounts.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// CanManageUsers returns true if the role can manage users.
func (r UserRole) CanManageUsers() bool {
	return r == RoleAdmin
}

// User represents a platform user.
type User struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Username            string     `json:"username" db:"username"`
	Email               *string    `json:"email,omitempty" db:"email"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Role                UserRole   `json:"role" db:"role"`
	IsActive            bool       `json:"is_active" db:"is_active"`
	FailedLoginAttempts int        `json:"failed_login_attempts" db:"failed_login_attempts"`
	LockedUntil         *time.Time `json:"locked_until,omitempty" db:"locked_until"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	PasswordChangedAt   *time.Time `json:"password_changed_at,omitempty" db:"password_changed_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLocked returns true if the user is currently locked out.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin returns true if the user can log in.
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsLocked() && u.Role != RolePending
}

// CreateUserInput represents input for creating a user.
type CreateUserInput struct {
	Username string   `json:"username" validate:"required,username,min=3,max=50"`
	Email    *string  `json:"email,omitempty" validate:"omitempty,email"`
	Password string   `json:"password" validate:"required,password_strength"`
	Role     UserRole `json:"role" validate:"required,oneof=admin user pending"`
}

// UpdateUserInput represents input for updating a user.
type UpdateUserInput struct {
	Email    *string   `json:"email,omitempty" validate:"omitempty,email"`
	Role     *UserRole `json:"role,omitempty" validate:"omitempty,oneof=admin user pending"`
	IsActive *bool     `json:"is_active,omitempty"`
}

// ChangePasswordInput represents input for changing a password.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password_strength"`
}

// Session represents a refresh-token session issued by the auth service.
type Session struct {
	ID               uuid.UUID `json:"id" db:"id"`
	UserID           uuid.UUID `json:"user_id" db:"user_id"`
	RefreshTokenHash string    `json:"-" db:"refresh_token_hash"`
	UserAgent        *string   `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress        *string   `json:"ip_address,omitempty" db:"ip_address"`
	ExpiresAt        time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// IsExpired returns true if the session is expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
