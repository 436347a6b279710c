package models

import (
	"fmt"
	"strings"
)

// Role distinguishes the two mutually exclusive profile extensions.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleBusiness Role = "BUSINESS"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleBusiness
}

// User is the identity record shared by both roles
type User struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Status     string `json:"status,omitempty"`
	StudentID  string `json:"studentId,omitempty"`
	BusinessID string `json:"businessId,omitempty"`
}

// Validate checks that at most one profile id is set and that it matches
// the role.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("unknown role %q", u.Role)
	}
	if u.StudentID != "" && u.BusinessID != "" {
		return fmt.Errorf("user %s has both studentId and businessId", u.ID)
	}
	if u.Role == RoleStudent && u.BusinessID != "" {
		return fmt.Errorf("student %s must not carry a businessId", u.ID)
	}
	if u.Role == RoleBusiness && u.StudentID != "" {
		return fmt.Errorf("business %s must not carry a studentId", u.ID)
	}
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileID returns the studentId or businessId matching the role.
func (u *User) ProfileID() string {
	if u.Role == RoleBusiness {
		return u.BusinessID
	}
	return u.StudentID
}
