package domain

import "time"

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	APIKey       string `gorm:"size:64;uniqueIndex;not null"`
	Role         Role   `gorm:"size:16;not null;default:candidate"`
	CreatedAt    time.Time
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID   uint
	Username string
	Role     Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
