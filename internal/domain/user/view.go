package user

import (
	"strings"
	"time"
)

// View is the externally exposed shape of a User: no password hash, references renamed
// to *Id fields and a derived full name.
type View struct {
	ID           string    `json:"id" yaml:"id"`
	Username     string    `json:"username" yaml:"username"`
	Email        string    `json:"email" yaml:"email"`
	Name         string    `json:"name" yaml:"name"`
	LastName     string    `json:"last_name" yaml:"last_name"`
	LastName2    string    `json:"last_name2,omitempty" yaml:"last_name2,omitempty"`
	FullName     string    `json:"fullName" yaml:"full_name"`
	Tel          string    `json:"tel,omitempty" yaml:"tel,omitempty"`
	RoleID       string    `json:"roleId,omitempty" yaml:"role_id,omitempty"`
	PositionID   string    `json:"positionId,omitempty" yaml:"position_id,omitempty"`
	ProfileImgID string    `json:"profileImgId,omitempty" yaml:"profile_img_id,omitempty"`
	Status       bool      `json:"status" yaml:"status"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" yaml:"updated_at"`
}

func PublicView(u *User) View {
	v := View{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Name:       u.Name,
		LastName:   u.LastName,
		LastName2:  u.LastName2,
		FullName:   strings.Join(strings.Fields(u.Name+" "+u.LastName+" "+u.LastName2), " "),
		Tel:        u.Tel,
		RoleID:     u.RoleRef,
		PositionID: u.PositionRef,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.ProfileAssetID != nil {
		v.ProfileImgID = *u.ProfileAssetID
	}
	return v
}
