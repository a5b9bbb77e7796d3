package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is owned by the identity side of the system. The asset store only reads it and
// sets ProfileAssetID once, on a user's first profile upload.
type User struct {
	ID             string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Username       string    `gorm:"column:username;size:30;uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"column:password_hash;not null" json:"-"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	LastName       string    `gorm:"column:last_name;not null" json:"last_name"`
	LastName2      string    `gorm:"column:last_name2" json:"last_name2,omitempty"`
	Tel            string    `gorm:"column:tel" json:"tel,omitempty"`
	RoleRef        string    `gorm:"column:role_ref;index" json:"role_ref"`
	PositionRef    string    `gorm:"column:position_ref;index" json:"position_ref"`
	Status         bool      `gorm:"column:status;not null" json:"status"`
	ProfileAssetID *string   `gorm:"column:profile_asset_id;type:varchar(36);index" json:"profile_asset_id,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Principal is the resolved identity behind a request. Only ID and IsActive are trusted by
// the asset store; the refs are carried for authorization collaborators.
type Principal struct {
	ID          string
	IsActive    bool
	RoleRef     string
	PositionRef string
}

func (u *User) Principal() Principal {
	return Principal{
		ID:          u.ID,
		IsActive:    u.Status,
		RoleRef:     u.RoleRef,
		PositionRef: u.PositionRef,
	}
}
