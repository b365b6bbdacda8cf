package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles, in decreasing order of privilege.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleEditor  = "editor"
	RoleViewer  = "viewer"
)

// UserRoles lists every valid user role.
var UserRoles = []string{RoleAdmin, RoleManager, RoleEditor, RoleViewer}

// User represents an admin panel account.
type User struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(100);not null"`
	Email         string         `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Password      string         `json:"-" gorm:"type:varchar(255);not null"`
	Role          string         `json:"role" gorm:"type:varchar(16);not null;default:'viewer';index"`
	Avatar        *string        `json:"avatar,omitempty" gorm:"type:varchar(512)"`
	Phone         *string        `json:"phone,omitempty" gorm:"type:varchar(32)"`
	IsActive      bool           `json:"is_active" gorm:"not null;default:true;index"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	LoginAttempts int            `json:"login_attempts" gorm:"not null;default:0"`
	Preferences   datatypes.JSON `json:"preferences,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key and hashes the password.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return u.hashPassword()
}

// BeforeUpdate re-hashes the password when it has been changed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Password") {
		return u.hashPassword()
	}
	return nil
}

func (u *User) hashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// ComparePassword checks a candidate password against the stored hash.
func (u *User) ComparePassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// IsValidRole reports whether r is a known user role.
func IsValidRole(r string) bool {
	for _, v := range UserRoles {
		if v == r {
			return true
		}
	}
	return false
}
