package model

import "time"

// Roles a back-office user can hold.
const (
	RoleAdmin = "admin"
)

// User is a back-office account allowed to read collected leads.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user may use the admin API.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthContext identifies the authenticated user of a request.
type AuthContext struct {
	UserID string
	Email  string
	Role   string
}
