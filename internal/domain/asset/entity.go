package asset

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetClass is the closed set of asset families. Profile uploads only produce ClassProfilePhoto.
type AssetClass string

const (
	ClassProfilePhoto AssetClass = "profile_photo"
	ClassDocument     AssetClass = "document"
	ClassReport       AssetClass = "report"
	ClassOther        AssetClass = "other"
)

func (c AssetClass) Valid() bool {
	switch c {
	case ClassProfilePhoto, ClassDocument, ClassReport, ClassOther:
		return true
	}
	return false
}

// Asset is one owner's profile-image family: current derivative pointers plus an
// append-only history. Revision guards concurrent appends and is never exposed.
type Asset struct {
	ID              string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	OwnerID         string     `gorm:"column:owner_id;type:varchar(128);uniqueIndex;not null" json:"-"`
	PrimaryKey      string     `gorm:"column:primary_key;not null" json:"primary_key"`
	ThumbnailKey    string     `gorm:"column:thumbnail_key;not null" json:"thumbnail_key"`
	OriginalName    string     `gorm:"column:original_name;not null" json:"original_name"`
	MimeType        string     `gorm:"column:mime_type;not null" json:"mime_type"`
	PrimaryMimeType string     `gorm:"column:primary_mime_type;not null" json:"primary_mime_type"`
	SizeBytes       int64      `gorm:"column:size_bytes;not null" json:"size_bytes"`
	AssetClass      AssetClass `gorm:"column:asset_class;type:varchar(32);not null;check:asset_class IN ('profile_photo','document','report','other')" json:"type"`
	Checksum        string     `gorm:"column:checksum;type:varchar(64)" json:"checksum"`
	Revision        int64      `gorm:"column:revision;not null" json:"-"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	CreatedBy       string     `gorm:"column:created_by;type:varchar(36)" json:"created_by"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
	UpdatedBy       *string    `gorm:"column:updated_by;type:varchar(36)" json:"updated_by,omitempty"`

	Versions []Version `gorm:"foreignKey:AssetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"versions,omitempty"`
}

func (Asset) TableName() string { return "assets" }

func (a *Asset) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Version is an immutable snapshot of one upload. VersionNumber is 1-based and gapless
// within an asset.
type Version struct {
	ID            string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	AssetID       string    `gorm:"column:asset_id;type:varchar(36);not null;uniqueIndex:idx_asset_version,priority:1" json:"-"`
	VersionNumber int       `gorm:"column:version_number;not null;uniqueIndex:idx_asset_version,priority:2" json:"version_number"`
	PrimaryKey    string    `gorm:"column:primary_key;not null" json:"primary_key"`
	ThumbnailKey  string    `gorm:"column:thumbnail_key;not null" json:"thumbnail_key"`
	SizeBytes     int64     `gorm:"column:size_bytes;not null" json:"size_bytes"`
	MimeType      string    `gorm:"column:mime_type;not null" json:"mime_type"`
	Checksum      string    `gorm:"column:checksum;type:varchar(64);not null" json:"checksum"`
	CreatedBy     string    `gorm:"column:created_by;type:varchar(36)" json:"created_by"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Version) TableName() string { return "asset_versions" }

func (v *Version) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
