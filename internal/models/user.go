package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" gorm:"uniqueIndex;not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null"`
	Password string    `json:"-" gorm:"not null"`
	Role     string    `json:"role" gorm:"not null;default:'user'"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CreatedTasks  []Task `json:"created_tasks,omitempty" gorm:"foreignKey:CreatedBy"`
	AssignedTasks []Task `json:"assigned_tasks,omitempty" gorm:"foreignKey:AssignedTo"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the authenticated actor attached to a request after token
// verification. It carries everything the authorization policy needs.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}
