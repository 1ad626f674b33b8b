package models

import "time"

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID    uint64
	Email string

	// PasswordHash never leaves the process: shipments are cached as JSON
	// with their creator/updater attached.
	PasswordHash string `json:"-"`
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserCreateInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// RefreshToken stores only the sha256 of the opaque token value.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
